package authz

import "github.com/google/uuid"

// Action is a permitted operation on a subject.
type Action string

const (
	ActionManage Action = "manage" // implies every other action
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Subjects known to the capability table.
const (
	SubjectAll    = "all"
	SubjectClient = "client"
)

// Rule is one entry of the capability table: (action, subject) with an
// optional ownership scope and an allow/deny effect.
type Rule struct {
	Action  Action
	Subject string
	Owned   bool // allow only applies when the resource owner matches the user
	Deny    bool
}

// Ability is the capability set built for one authenticated user.
type Ability struct {
	userID uuid.UUID
	rules  []Rule
}

// For builds the capability set for a user by role. Roles outside the table
// receive an empty set (deny everything).
func For(userID uuid.UUID, role string) *Ability {
	a := &Ability{userID: userID}
	switch Normalize(role) {
	case "gerente", "administrador":
		a.rules = []Rule{{Action: ActionManage, Subject: SubjectAll}}
	case "terapeuta":
		a.rules = []Rule{
			{Action: ActionManage, Subject: SubjectClient, Owned: true},
			// Explicit deny wins over the delete implied by manage.
			{Action: ActionDelete, Subject: SubjectClient, Deny: true},
		}
	}
	return a
}

// Can reports whether the user may perform action on subject. ownerID is the
// resource owner for ownership-scoped rules; pass nil when the resource has
// no owner. Deny rules take precedence over any allow, and everything not
// explicitly allowed is denied.
func (a *Ability) Can(action Action, subject string, ownerID *uuid.UUID) bool {
	for _, r := range a.rules {
		if r.Deny && r.matches(action, subject) {
			return false
		}
	}
	for _, r := range a.rules {
		if r.Deny || !r.matches(action, subject) {
			continue
		}
		if r.Owned {
			if ownerID == nil || *ownerID != a.userID {
				continue
			}
		}
		return true
	}
	return false
}

func (r Rule) matches(action Action, subject string) bool {
	if r.Subject != SubjectAll && r.Subject != subject {
		return false
	}
	return r.Action == ActionManage || r.Action == action
}
