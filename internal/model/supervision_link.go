package model

import (
	"time"

	"github.com/google/uuid"
)

// Supervision link statuses.
const (
	SupervisionActive   = "active"
	SupervisionEnded    = "ended"
	SupervisionArchived = "archived"
)

// SupervisionLink relates a supervisor to a supervised clinician for a
// clinical area. Archived links are soft-deleted: excluded from active views
// but kept for the clinical record.
type SupervisionLink struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SupervisorID uuid.UUID `gorm:"type:uuid;index;not null"`
	ClinicianID  uuid.UUID `gorm:"type:uuid;index;not null"`
	Area         string    `gorm:"type:varchar(80);not null"`
	// Scope: direct | indirect
	Scope          string `gorm:"type:varchar(10);not null"`
	HierarchyLevel int    `gorm:"not null;default:1"`
	StartDate      time.Time `gorm:"type:date;not null"`
	EndDate        *time.Time `gorm:"type:date"`
	Status         string     `gorm:"type:varchar(10);not null;default:'active';index"`
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
