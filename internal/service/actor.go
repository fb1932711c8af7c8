package service

import "github.com/google/uuid"

// Actor identifies the authenticated user performing an operation, as taken
// from the verified token claims.
type Actor struct {
	UserID      uuid.UUID
	Name        string
	Role        string
	AccessLevel int
}
