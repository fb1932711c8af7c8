// Package billing holds the pure business rules for billing entries: schedule
// validation, rate resolution and the hours-billed bucketing used for meeting
// minutes. Persistence and workflow live in internal/service.
package billing

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AttendanceType is the billable category of an entry.
type AttendanceType string

const (
	AttendanceOffice               AttendanceType = "office"
	AttendanceHomeCare             AttendanceType = "home_care"
	AttendanceMaterialsDevelopment AttendanceType = "materials_development"
	AttendanceSupervisionGiven     AttendanceType = "supervision_given"
	AttendanceSupervisionReceived  AttendanceType = "supervision_received"
	AttendanceMeeting              AttendanceType = "meeting"
)

// AttendanceTypes lists every valid attendance type, in rate-table order.
var AttendanceTypes = []AttendanceType{
	AttendanceOffice,
	AttendanceHomeCare,
	AttendanceMaterialsDevelopment,
	AttendanceSupervisionGiven,
	AttendanceSupervisionReceived,
	AttendanceMeeting,
}

// Valid reports whether t is a known attendance type.
func (t AttendanceType) Valid() bool {
	for _, known := range AttendanceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Schedule is the validated slice of a billing entry: the session time window
// and the home-care reimbursement flag.
type Schedule struct {
	StartTime         string // "HH:MM", local clinic time
	EndTime           string // "HH:MM"
	AttendanceType    AttendanceType
	CostReimbursement *bool // must be set (true or false) for home-care
}

// ValidateSchedule checks every rule independently and returns the full set
// of violations keyed by field — it never stops at the first failure. An
// empty map means the schedule is valid.
//
// HH:MM strings compare correctly as strings (zero-padded 24h clock), which
// keeps the check timezone-free.
func ValidateSchedule(s Schedule) map[string]string {
	violations := make(map[string]string)

	if s.EndTime <= s.StartTime {
		violations["end_time"] = "end time must be later than start time"
	}
	if s.AttendanceType == AttendanceHomeCare && s.CostReimbursement == nil {
		violations["cost_reimbursement"] = "cost reimbursement must be informed for home care"
	}
	return violations
}

// RateTable maps attendance types to the therapist's configured hourly rate.
type RateTable map[AttendanceType]decimal.Decimal

// RateFor resolves the applicable rate for an attendance type. A missing
// rate resolves to zero instead of failing; the fallback is logged because a
// zero-amount charge usually means the therapist's rate table is incomplete.
func RateFor(t AttendanceType, rates RateTable) decimal.Decimal {
	rate, ok := rates[t]
	if !ok {
		log.Warn().Str("attendance_type", string(t)).Msg("billing: no rate configured, falling back to zero")
		return decimal.Zero
	}
	return rate
}

// BilledUnits converts a meeting duration in minutes to billed hour units.
// Thresholds are fixed business constants:
//
//	<= 0 min  → 0 units
//	<= 89 min → 1 unit
//	<= 149    → 2 units
//	otherwise → 3 units
func BilledUnits(minutes int) int {
	switch {
	case minutes <= 0:
		return 0
	case minutes <= 89:
		return 1
	case minutes <= 149:
		return 2
	default:
		return 3
	}
}
