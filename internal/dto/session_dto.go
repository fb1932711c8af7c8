package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type TrialRequest struct {
	StimulusID *string  `json:"stimulus_id" validate:"omitempty,uuid"`
	Category   string   `json:"category"    validate:"omitempty,max=120"`
	Outcome    string   `json:"outcome"     validate:"required,oneof=independent prompted error"`
	Load       *float64 `json:"load"`
}

type CreateSessionRequest struct {
	ProgramID         string         `json:"program_id"   validate:"required,uuid"`
	ClientID          string         `json:"client_id"    validate:"required,uuid"`
	SessionDate       string         `json:"session_date" validate:"required,datetime=2006-01-02"`
	StartTime         string         `json:"start_time"   validate:"required,datetime=15:04"`
	EndTime           string         `json:"end_time"     validate:"required,datetime=15:04"`
	AttendanceType    string         `json:"attendance_type" validate:"required,oneof=office home_care materials_development supervision_given supervision_received meeting"`
	CostReimbursement *bool          `json:"cost_reimbursement"`
	Notes             *string        `json:"notes"`
	Trials            []TrialRequest `json:"trials" validate:"omitempty,dive"`
}

type SessionFilter struct {
	ClientID  string `form:"client_id"  validate:"omitempty,uuid"`
	ProgramID string `form:"program_id" validate:"omitempty,uuid"`
	From      string `form:"from"       validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to"         validate:"omitempty,datetime=2006-01-02"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TrialResponse struct {
	ID         string   `json:"id"`
	StimulusID *string  `json:"stimulus_id"`
	Category   string   `json:"category"`
	Outcome    string   `json:"outcome"`
	Load       *float64 `json:"load"`
}

type SessionResponse struct {
	ID             string          `json:"id"`
	ProgramID      string          `json:"program_id"`
	ClientID       string          `json:"client_id"`
	TherapistID    string          `json:"therapist_id"`
	SessionDate    string          `json:"session_date"`
	StartTime      string          `json:"start_time"`
	EndTime        string          `json:"end_time"`
	Notes          *string         `json:"notes"`
	Trials         []TrialResponse `json:"trials"`
	BillingEntryID *string         `json:"billing_entry_id,omitempty"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
