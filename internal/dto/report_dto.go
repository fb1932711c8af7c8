package dto

import "github.com/agency73code/indigo-gestao-sub010/internal/report"

type ReportFilter struct {
	ClientID  string `form:"client_id"  validate:"required,uuid"`
	ProgramID string `form:"program_id" validate:"omitempty,uuid"`
	From      string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to"   validate:"omitempty,datetime=2006-01-02"`
}

// SessionReportResponse bundles every chart series the frontend renders for
// a client's program. Empty series mean "no data" — never NaN placeholders.
type SessionReportResponse struct {
	Sessions    int                       `json:"sessions"`
	Autonomy    []report.CategoryAutonomy `json:"autonomy_by_category"`
	Performance []report.PerformancePoint `json:"performance_over_time"`
	Load        *report.LoadSummary       `json:"load,omitempty"`
}
