package dto

import "encoding/json"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateClientRequest struct {
	Name      string  `json:"name"       validate:"required,min=2,max=150"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Guardian  *string `json:"guardian"   validate:"omitempty,max=150"`
	Phone     *string `json:"phone"      validate:"omitempty,max=30"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Notes     *string `json:"notes"`
}

type UpdateClientRequest struct {
	Name      string  `json:"name"       validate:"omitempty,min=2,max=150"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Guardian  *string `json:"guardian"   validate:"omitempty,max=150"`
	Phone     *string `json:"phone"      validate:"omitempty,max=30"`
	Email     *string `json:"email"      validate:"omitempty,email"`
	Notes     *string `json:"notes"`
}

type SaveAnamnesisRequest struct {
	Answers json.RawMessage `json:"answers" validate:"required"`
}

type ClientFilter struct {
	Active *bool  `form:"active"`
	Search string `form:"search"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClientResponse struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"owner_id"`
	Name      string  `json:"name"`
	BirthDate *string `json:"birth_date"`
	Guardian  *string `json:"guardian"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Notes     *string `json:"notes"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"created_at"`
}

type ClientListResponse struct {
	Data  []ClientResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type AnamnesisResponse struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"client_id"`
	Answers   json.RawMessage `json:"answers"`
	FilledBy  string          `json:"filled_by"`
	UpdatedAt string          `json:"updated_at"`
}
