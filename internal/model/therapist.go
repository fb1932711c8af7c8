package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Therapist stores system users. Role is a free-text label resolved to a
// numeric access level by internal/authz; AreaRoles carry the per-clinical-
// area role pairs, of which the highest level wins.
type Therapist struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(60);not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	AreaRoles []TherapistAreaRole `gorm:"foreignKey:TherapistID"`
	Rates     []TherapistRate     `gorm:"foreignKey:TherapistID"`
}

// TherapistAreaRole is one (clinical area, role) pair for a therapist.
type TherapistAreaRole struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TherapistID uuid.UUID `gorm:"type:uuid;index;not null"`
	Area        string    `gorm:"type:varchar(80);not null"`
	Role        string    `gorm:"type:varchar(60);not null"`
	CreatedAt   time.Time
}

// TherapistRate is the configured rate for one attendance type. A missing
// row for a type means "no rate configured" and resolves to zero at billing
// time.
type TherapistRate struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TherapistID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_therapist_attendance"`
	AttendanceType string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_therapist_attendance"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
