package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAdminManagesEverything(t *testing.T) {
	userID := uuid.New()
	other := uuid.New()
	a := For(userID, "administrador")

	assert.True(t, a.Can(ActionCreate, SubjectClient, nil))
	assert.True(t, a.Can(ActionRead, SubjectAll, nil))
	assert.True(t, a.Can(ActionDelete, SubjectClient, &other))
}

func TestTherapistOwnershipScope(t *testing.T) {
	userID := uuid.New()
	other := uuid.New()
	a := For(userID, "terapeuta")

	assert.True(t, a.Can(ActionRead, SubjectClient, &userID))
	assert.True(t, a.Can(ActionUpdate, SubjectClient, &userID))
	assert.False(t, a.Can(ActionRead, SubjectClient, &other))
	assert.False(t, a.Can(ActionRead, SubjectClient, nil))
	assert.False(t, a.Can(ActionRead, SubjectAll, nil))
}

func TestDenyWinsOverManage(t *testing.T) {
	userID := uuid.New()
	a := For(userID, "terapeuta")

	// manage on owned clients would imply delete, but the explicit deny
	// takes precedence even for the owner.
	assert.False(t, a.Can(ActionDelete, SubjectClient, &userID))
}

func TestUnknownRoleDeniesEverything(t *testing.T) {
	userID := uuid.New()
	a := For(userID, "estagiario")

	assert.False(t, a.Can(ActionRead, SubjectClient, &userID))
	assert.False(t, a.Can(ActionCreate, SubjectClient, nil))
}
