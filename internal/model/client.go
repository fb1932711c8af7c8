package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Client is a patient record owned by a therapist. Ownership drives the
// capability checks: a therapist manages only clients whose OwnerID matches.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string    `gorm:"not null"`
	BirthDate *time.Time
	Guardian  *string
	Phone     *string
	Email     *string
	Notes     *string
	Active    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Anamnesis is the intake form for a client — one per client, updated in
// place.
type Anamnesis struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClientID  uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"`
	Answers   datatypes.JSON `gorm:"not null"`
	FilledBy  uuid.UUID      `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
