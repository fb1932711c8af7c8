package service

import (
	"context"
	"errors"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/billing"
	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SessionService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	List(ctx context.Context, filter dto.SessionFilter) (*dto.SessionListResponse, error)
}

type sessionService struct {
	sessions   repository.SessionRepository
	billing    repository.BillingRepository
	therapists repository.TherapistRepository
}

func NewSessionService(sessions repository.SessionRepository, billingRepo repository.BillingRepository, therapists repository.TherapistRepository) SessionService {
	return &sessionService{sessions: sessions, billing: billingRepo, therapists: therapists}
}

// Create persists a session with its trials and the matching billing entry in
// one transaction. Saving a session is what makes it billable, so the two
// rows must appear together or not at all.
func (s *sessionService) Create(ctx context.Context, actor Actor, req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	attendance := billing.AttendanceType(req.AttendanceType)
	violations := billing.ValidateSchedule(billing.Schedule{
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		AttendanceType:    attendance,
		CostReimbursement: req.CostReimbursement,
	})
	if len(violations) > 0 {
		return nil, &FieldViolations{Fields: violations}
	}

	sessionDate, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		return nil, errors.New("invalid session date")
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, errors.New("invalid client id")
	}
	programID, err := uuid.Parse(req.ProgramID)
	if err != nil {
		return nil, errors.New("invalid program id")
	}

	session := &model.TherapySession{
		ProgramID:   programID,
		ClientID:    clientID,
		TherapistID: actor.UserID,
		SessionDate: sessionDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Notes:       req.Notes,
	}
	for _, t := range req.Trials {
		trial := model.SessionTrial{
			Category: t.Category,
			Outcome:  t.Outcome,
			Load:     t.Load,
		}
		if t.StimulusID != nil {
			sid, err := uuid.Parse(*t.StimulusID)
			if err != nil {
				return nil, errors.New("invalid stimulus id")
			}
			trial.StimulusID = &sid
		}
		session.Trials = append(session.Trials, trial)
	}

	entry, err := s.buildBillingEntry(ctx, actor.UserID, &clientID, session, req)
	if err != nil {
		return nil, err
	}

	transition := &model.BillingTransition{Action: "created", ActorID: actor.UserID}
	if db := s.sessions.DB(); db != nil {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.sessions.CreateTx(ctx, tx, session); err != nil {
				return err
			}
			entry.SessionID = &session.ID
			if err := s.billing.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
			transition.EntryID = entry.ID
			return s.billing.AddTransitionTx(ctx, tx, transition)
		})
	} else {
		// Fake repositories have no transaction support.
		if err = s.sessions.CreateTx(ctx, nil, session); err == nil {
			entry.SessionID = &session.ID
			if err = s.billing.CreateTx(ctx, nil, entry); err == nil {
				transition.EntryID = entry.ID
				err = s.billing.AddTransitionTx(ctx, nil, transition)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	resp := sessionToResponse(session)
	entryID := entry.ID.String()
	resp.BillingEntryID = &entryID
	return resp, nil
}

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("session not found")
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) List(ctx context.Context, filter dto.SessionFilter) (*dto.SessionListResponse, error) {
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.SessionListResponse{
		Data:  make([]dto.SessionResponse, len(sessions)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range sessions {
		resp.Data[i] = *sessionToResponse(&sessions[i])
	}
	return resp, nil
}

// buildBillingEntry prices the session against the therapist's rate table.
// Meetings bill by hour bucket; every other attendance type bills one unit at
// the configured rate.
func (s *sessionService) buildBillingEntry(ctx context.Context, therapistID uuid.UUID, clientID *uuid.UUID, session *model.TherapySession, req dto.CreateSessionRequest) (*model.BillingEntry, error) {
	therapist, err := s.therapists.FindByID(ctx, therapistID)
	if err != nil {
		return nil, errors.New("therapist not found")
	}

	rates := make(billing.RateTable, len(therapist.Rates))
	for _, r := range therapist.Rates {
		rates[billing.AttendanceType(r.AttendanceType)] = r.Amount
	}

	attendance := billing.AttendanceType(req.AttendanceType)
	rate := billing.RateFor(attendance, rates)

	units := 1
	amount := rate
	if attendance == billing.AttendanceMeeting {
		units = billing.BilledUnits(scheduleMinutes(req.StartTime, req.EndTime))
		amount = rate.Mul(decimal.NewFromInt(int64(units)))
	}

	return &model.BillingEntry{
		TherapistID:       therapistID,
		ClientID:          clientID,
		SessionDate:       session.SessionDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		AttendanceType:    req.AttendanceType,
		CostReimbursement: req.CostReimbursement,
		Amount:            amount,
		Units:             units,
		Status:            model.BillingPending,
	}, nil
}

// scheduleMinutes computes the window length of an HH:MM pair. Callers
// validate end > start first, so a negative result only happens on bad input
// and collapses to zero units downstream.
func scheduleMinutes(start, end string) int {
	st, err1 := time.Parse("15:04", start)
	et, err2 := time.Parse("15:04", end)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(et.Sub(st).Minutes())
}

// ── helpers ──────────────────────────────────────────────────────────────────

func sessionToResponse(s *model.TherapySession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:          s.ID.String(),
		ProgramID:   s.ProgramID.String(),
		ClientID:    s.ClientID.String(),
		TherapistID: s.TherapistID.String(),
		SessionDate: s.SessionDate.Format("2006-01-02"),
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Notes:       s.Notes,
		Trials:      make([]dto.TrialResponse, len(s.Trials)),
	}
	for i, t := range s.Trials {
		tr := dto.TrialResponse{
			ID:       t.ID.String(),
			Category: t.Category,
			Outcome:  t.Outcome,
			Load:     t.Load,
		}
		if t.StimulusID != nil {
			sid := t.StimulusID.String()
			tr.StimulusID = &sid
		}
		resp.Trials[i] = tr
	}
	return resp
}
