package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateSupervisionRequest struct {
	SupervisorID   string  `json:"supervisor_id" validate:"required,uuid"`
	ClinicianID    string  `json:"clinician_id"  validate:"required,uuid"`
	Area           string  `json:"area"          validate:"required,min=2,max=80"`
	Scope          string  `json:"scope"         validate:"required,oneof=direct indirect"`
	HierarchyLevel int     `json:"hierarchy_level" validate:"min=1,max=10"`
	StartDate      string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        *string `json:"end_date"   validate:"omitempty,datetime=2006-01-02"`
	Notes          *string `json:"notes"`
}

type UpdateSupervisionRequest struct {
	Scope          string  `json:"scope" validate:"omitempty,oneof=direct indirect"`
	HierarchyLevel *int    `json:"hierarchy_level" validate:"omitempty,min=1,max=10"`
	Notes          *string `json:"notes"`
}

type EndSupervisionRequest struct {
	EndDate string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type SupervisionFilter struct {
	SupervisorID string `form:"supervisor_id" validate:"omitempty,uuid"`
	ClinicianID  string `form:"clinician_id"  validate:"omitempty,uuid"`
	Status       string `form:"status" validate:"omitempty,oneof=active ended archived all"`
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SupervisionResponse struct {
	ID             string  `json:"id"`
	SupervisorID   string  `json:"supervisor_id"`
	ClinicianID    string  `json:"clinician_id"`
	Area           string  `json:"area"`
	Scope          string  `json:"scope"`
	HierarchyLevel int     `json:"hierarchy_level"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date,omitempty"`
	Status         string  `json:"status"`
	Notes          *string `json:"notes,omitempty"`
}

type SupervisionListResponse struct {
	Data  []SupervisionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
