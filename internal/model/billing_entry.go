package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Billing entry statuses. Approved is terminal; rejected entries may be
// corrected and resubmitted, returning to pending.
const (
	BillingPending  = "pending"
	BillingApproved = "approved"
	BillingRejected = "rejected"
)

// BillingEntry represents one billable unit of work, created when a therapy
// session, evolution note or meeting minute is saved.
type BillingEntry struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TherapistID uuid.UUID  `gorm:"type:uuid;index;not null"`
	ClientID    *uuid.UUID `gorm:"type:uuid;index"`
	SessionID   *uuid.UUID `gorm:"type:uuid;index"`
	SessionDate time.Time  `gorm:"type:date;not null"`
	StartTime   string     `gorm:"type:varchar(5);not null"` // HH:MM, clinic-local
	EndTime     string     `gorm:"type:varchar(5);not null"`
	// AttendanceType: office | home_care | materials_development |
	// supervision_given | supervision_received | meeting
	AttendanceType    string `gorm:"type:varchar(30);not null"`
	CostReimbursement *bool
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// Units is the billed hour bucket, only meaningful for meeting entries.
	Units           int     `gorm:"not null;default:0"`
	Status          string  `gorm:"type:varchar(20);not null;default:'pending';index"`
	RejectionReason *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Transitions []BillingTransition `gorm:"foreignKey:EntryID"`
	Attachments []BillingAttachment `gorm:"foreignKey:EntryID"`
}

// BillingTransition records one workflow action on an entry, with actor and
// timestamp. Transitions are immutable — created, never updated.
type BillingTransition struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntryID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Action    string    `gorm:"type:varchar(20);not null"` // created | approved | rejected | corrected
	ActorID   uuid.UUID `gorm:"type:uuid;not null"`
	Note      *string
	CreatedAt time.Time
}

// BillingAttachment is a file stored for an entry, keyed by an entity-scoped
// path under the attachment store.
type BillingAttachment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntryID   uuid.UUID `gorm:"type:uuid;index;not null"`
	FileName  string    `gorm:"not null"`
	Key       string    `gorm:"not null"` // billing/{entry_id}/{timestamp}_{name}
	Size      int64     `gorm:"not null;default:0"`
	CreatedAt time.Time
}
