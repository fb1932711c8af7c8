package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AreaRolePair struct {
	Area string `json:"area" validate:"required,min=2,max=80"`
	Role string `json:"role" validate:"required,min=2,max=60"`
}

type RateEntry struct {
	AttendanceType string          `json:"attendance_type" validate:"required,oneof=office home_care materials_development supervision_given supervision_received meeting"`
	Amount         decimal.Decimal `json:"amount" validate:"min=0"`
}

type CreateTherapistRequest struct {
	Username  string         `json:"username" validate:"required,min=1,max=150"`
	Name      string         `json:"name"     validate:"required,min=2,max=100"`
	Email     *string        `json:"email"    validate:"omitempty,email"`
	Password  string         `json:"password" validate:"required,min=8"`
	Role      string         `json:"role"     validate:"required,min=2,max=60"`
	AreaRoles []AreaRolePair `json:"area_roles" validate:"omitempty,dive"`
	Rates     []RateEntry    `json:"rates"      validate:"omitempty,dive"`
}

type UpdateTherapistRequest struct {
	Name      string         `json:"name"     validate:"omitempty,min=2,max=100"`
	Email     *string        `json:"email"    validate:"omitempty,email"`
	Role      string         `json:"role"     validate:"omitempty,min=2,max=60"`
	Password  string         `json:"password" validate:"omitempty,min=8"`
	AreaRoles []AreaRolePair `json:"area_roles" validate:"omitempty,dive"`
	Rates     []RateEntry    `json:"rates"      validate:"omitempty,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TherapistResponse struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Name        string         `json:"name"`
	Email       *string        `json:"email"`
	Role        string         `json:"role"`
	AccessLevel int            `json:"access_level"`
	AreaRoles   []AreaRolePair `json:"area_roles,omitempty"`
	Rates       []RateEntry    `json:"rates,omitempty"`
	Active      bool           `json:"active"`
}

type LoginResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	TokenType    string            `json:"token_type"`
	ExpiresIn    int               `json:"expires_in"` // seconds
	User         TherapistResponse `json:"user"`
}
