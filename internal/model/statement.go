package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Statement generation statuses.
const (
	StatementPending   = "pending"
	StatementGenerated = "generated"
	StatementSent      = "sent"
	StatementError     = "error"
)

// Statement is a generated monthly billing statement for one therapist.
type Statement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TherapistID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Period      string          `gorm:"type:varchar(7);not null"` // YYYY-MM
	Entries     int             `gorm:"not null;default:0"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status      string          `gorm:"type:varchar(20);not null;default:'pending'"`
	// PDFPath is the absolute path of the rendered file under
	// STATEMENT_STORAGE_PATH
	PDFPath *string
	// Retry fields — used by the retry cron to re-attempt failed generations
	RetryCount  int `gorm:"not null;default:0"`
	NextRetryAt *time.Time
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
