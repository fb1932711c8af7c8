package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateBillingEntryRequest struct {
	ClientID          *string `json:"client_id"    validate:"omitempty,uuid"`
	SessionDate       string  `json:"session_date" validate:"required,datetime=2006-01-02"`
	StartTime         string  `json:"start_time"   validate:"required,datetime=15:04"`
	EndTime           string  `json:"end_time"     validate:"required,datetime=15:04"`
	AttendanceType    string  `json:"attendance_type" validate:"required,oneof=office home_care materials_development supervision_given supervision_received meeting"`
	CostReimbursement *bool   `json:"cost_reimbursement"`
}

type RejectBillingRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// CorrectBillingRequest rides along a multipart form: corrected fields as a
// JSON part plus any number of new attachment files. RemoveAttachments lists
// attachment ids to drop in the same operation.
type CorrectBillingRequest struct {
	SessionDate       string   `json:"session_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime         string   `json:"start_time"   validate:"omitempty,datetime=15:04"`
	EndTime           string   `json:"end_time"     validate:"omitempty,datetime=15:04"`
	AttendanceType    string   `json:"attendance_type" validate:"omitempty,oneof=office home_care materials_development supervision_given supervision_received meeting"`
	CostReimbursement *bool    `json:"cost_reimbursement"`
	Note              *string  `json:"note" validate:"omitempty,max=500"`
	RemoveAttachments []string `json:"remove_attachments" validate:"omitempty,dive,uuid"`
}

type BulkApproveRequest struct {
	EntryIDs []string `json:"entry_ids" validate:"required,min=1,max=100,dive,uuid"`
}

type BillingFilter struct {
	TherapistID string `form:"therapist_id" validate:"omitempty,uuid"`
	ClientID    string `form:"client_id"    validate:"omitempty,uuid"`
	Status      string `form:"status" validate:"omitempty,oneof=pending approved rejected all"`
	From        string `form:"from"   validate:"omitempty,datetime=2006-01-02"`
	To          string `form:"to"     validate:"omitempty,datetime=2006-01-02"`
	Order       string `form:"order,default=desc" validate:"omitempty,oneof=asc desc"`
	Page        int    `form:"page,default=1"     validate:"min=1"`
	Limit       int    `form:"limit,default=50"   validate:"min=1,max=200"`
}

type GenerateStatementRequest struct {
	TherapistID string `json:"therapist_id" validate:"required,uuid"`
	Period      string `json:"period"       validate:"required,datetime=2006-01"`
	Email       *string `json:"email"       validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
}

type TransitionResponse struct {
	Action    string  `json:"action"`
	ActorID   string  `json:"actor_id"`
	Note      *string `json:"note,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type BillingEntryResponse struct {
	ID                string               `json:"id"`
	TherapistID       string               `json:"therapist_id"`
	ClientID          *string              `json:"client_id,omitempty"`
	SessionID         *string              `json:"session_id,omitempty"`
	SessionDate       string               `json:"session_date"`
	StartTime         string               `json:"start_time"`
	EndTime           string               `json:"end_time"`
	AttendanceType    string               `json:"attendance_type"`
	CostReimbursement *bool                `json:"cost_reimbursement"`
	Amount            decimal.Decimal      `json:"amount"`
	Units             int                  `json:"units"`
	Status            string               `json:"status"`
	RejectionReason   *string              `json:"rejection_reason,omitempty"`
	Attachments       []AttachmentResponse `json:"attachments,omitempty"`
	Transitions       []TransitionResponse `json:"transitions,omitempty"`
	CreatedAt         string               `json:"created_at"`
}

type BillingListResponse struct {
	Data  []BillingEntryResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// BulkApproveResult is the per-entry outcome of a bulk approval. A failed
// entry never aborts the rest of the batch.
type BulkApproveResult struct {
	EntryID string  `json:"entry_id"`
	OK      bool    `json:"ok"`
	Error   *string `json:"error,omitempty"`
}

type BulkApproveResponse struct {
	Results   []BulkApproveResult `json:"results"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

type StatementResponse struct {
	ID          string          `json:"id"`
	TherapistID string          `json:"therapist_id"`
	Period      string          `json:"period"`
	Entries     int             `json:"entries"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	PDFUrl      *string         `json:"pdf_url,omitempty"`
	CreatedAt   string          `json:"created_at"`
}
