package model

import (
	"time"

	"github.com/google/uuid"
)

// TherapySession is one attended session of an intervention program.
// Outcome: trials are immutable once the session is persisted — there is no
// flow that edits an individual trial.
type TherapySession struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProgramID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID    uuid.UUID `gorm:"type:uuid;index;not null"`
	TherapistID uuid.UUID `gorm:"type:uuid;index;not null"`
	SessionDate time.Time `gorm:"type:date;not null"`
	StartTime   string    `gorm:"type:varchar(5);not null"` // HH:MM
	EndTime     string    `gorm:"type:varchar(5);not null"`
	Notes       *string
	CreatedAt   time.Time

	Trials []SessionTrial `gorm:"foreignKey:SessionID"`
}

// SessionTrial is one measured attempt within a session.
// Outcome: "independent" | "prompted" | "error"
type SessionTrial struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID  uuid.UUID `gorm:"type:uuid;index;not null"`
	StimulusID *uuid.UUID `gorm:"type:uuid"`
	// Category is denormalized from the stimulus at save time so reports do
	// not need the stimulus table; empty when StimulusID is nil.
	Category  string `gorm:"type:varchar(120)"`
	Outcome   string `gorm:"type:varchar(20);not null"`
	Load      *float64
	CreatedAt time.Time
}
