package service

import (
	"context"
	"errors"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errNotFound = errors.New("record not found")

// ── In-memory repository stubs ───────────────────────────────────────────────

type fakeTherapistRepo struct {
	therapists map[uuid.UUID]*model.Therapist
}

func newFakeTherapistRepo() *fakeTherapistRepo {
	return &fakeTherapistRepo{therapists: make(map[uuid.UUID]*model.Therapist)}
}

func (r *fakeTherapistRepo) add(t *model.Therapist) *model.Therapist {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.therapists[t.ID] = t
	return t
}

func (r *fakeTherapistRepo) Create(_ context.Context, t *model.Therapist) error {
	r.add(t)
	return nil
}

func (r *fakeTherapistRepo) FindByUsername(_ context.Context, username string) (*model.Therapist, error) {
	for _, t := range r.therapists {
		if t.Username == username && t.Active {
			return t, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeTherapistRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Therapist, error) {
	t, ok := r.therapists[id]
	if !ok {
		return nil, errNotFound
	}
	return t, nil
}

func (r *fakeTherapistRepo) List(_ context.Context, includeInactive bool) ([]model.Therapist, error) {
	out := make([]model.Therapist, 0, len(r.therapists))
	for _, t := range r.therapists {
		if t.Active || includeInactive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTherapistRepo) Update(_ context.Context, t *model.Therapist) error {
	r.therapists[t.ID] = t
	return nil
}

func (r *fakeTherapistRepo) ReplaceAreaRoles(_ context.Context, id uuid.UUID, pairs []model.TherapistAreaRole) error {
	if t, ok := r.therapists[id]; ok {
		t.AreaRoles = pairs
	}
	return nil
}

func (r *fakeTherapistRepo) ReplaceRates(_ context.Context, id uuid.UUID, rates []model.TherapistRate) error {
	if t, ok := r.therapists[id]; ok {
		t.Rates = rates
	}
	return nil
}

func (r *fakeTherapistRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if t, ok := r.therapists[id]; ok {
		t.Active = false
	}
	return nil
}

func (r *fakeTherapistRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	if t, ok := r.therapists[id]; ok {
		t.Active = true
	}
	return nil
}

type fakeBillingRepo struct {
	entries     map[uuid.UUID]*model.BillingEntry
	lastFilter  dto.BillingFilter
	transitions map[uuid.UUID][]model.BillingTransition
	attachments map[uuid.UUID][]model.BillingAttachment
	// transitionErr makes every audit write fail, mimicking a broken
	// transitions table.
	transitionErr error
}

func newFakeBillingRepo() *fakeBillingRepo {
	return &fakeBillingRepo{
		entries:     make(map[uuid.UUID]*model.BillingEntry),
		transitions: make(map[uuid.UUID][]model.BillingTransition),
		attachments: make(map[uuid.UUID][]model.BillingAttachment),
	}
}

func (r *fakeBillingRepo) DB() *gorm.DB { return nil }

func (r *fakeBillingRepo) CreateTx(_ context.Context, _ *gorm.DB, e *model.BillingEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries[e.ID] = e
	return nil
}

func (r *fakeBillingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BillingEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, errNotFound
	}
	out := *e
	out.Transitions = r.transitions[id]
	out.Attachments = r.attachments[id]
	return &out, nil
}

func (r *fakeBillingRepo) List(_ context.Context, filter dto.BillingFilter) ([]model.BillingEntry, int64, error) {
	r.lastFilter = filter
	out := make([]model.BillingEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if filter.TherapistID != "" && e.TherapistID.String() != filter.TherapistID {
			continue
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBillingRepo) ListApprovedForPeriod(_ context.Context, therapistID uuid.UUID, from, to time.Time) ([]model.BillingEntry, error) {
	var out []model.BillingEntry
	for _, e := range r.entries {
		if e.TherapistID != therapistID || e.Status != model.BillingApproved {
			continue
		}
		if e.SessionDate.Before(from) || !e.SessionDate.Before(to) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *fakeBillingRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to string, fields map[string]interface{}, t *model.BillingTransition) (int64, error) {
	e, ok := r.entries[id]
	if !ok || e.Status != from {
		return 0, nil
	}
	// Atomic like the real repository: a failed audit write rolls back the
	// status flip.
	if r.transitionErr != nil {
		return 0, r.transitionErr
	}
	e.Status = to
	for k, v := range fields {
		switch k {
		case "rejection_reason":
			if v == nil {
				e.RejectionReason = nil
			} else if s, ok := v.(string); ok {
				e.RejectionReason = &s
			}
		case "start_time":
			e.StartTime = v.(string)
		case "end_time":
			e.EndTime = v.(string)
		case "attendance_type":
			e.AttendanceType = v.(string)
		case "amount":
			e.Amount = v.(decimal.Decimal)
		case "units":
			e.Units = v.(int)
		case "session_date":
			e.SessionDate = v.(time.Time)
		case "cost_reimbursement":
			b := v.(bool)
			e.CostReimbursement = &b
		}
	}
	t.ID = uuid.New()
	r.transitions[id] = append(r.transitions[id], *t)
	return 1, nil
}

func (r *fakeBillingRepo) Update(_ context.Context, e *model.BillingEntry) error {
	r.entries[e.ID] = e
	return nil
}

func (r *fakeBillingRepo) AddTransitionTx(_ context.Context, _ *gorm.DB, t *model.BillingTransition) error {
	if r.transitionErr != nil {
		return r.transitionErr
	}
	t.ID = uuid.New()
	r.transitions[t.EntryID] = append(r.transitions[t.EntryID], *t)
	return nil
}

func (r *fakeBillingRepo) AddAttachment(_ context.Context, a *model.BillingAttachment) error {
	a.ID = uuid.New()
	r.attachments[a.EntryID] = append(r.attachments[a.EntryID], *a)
	return nil
}

func (r *fakeBillingRepo) FindAttachment(_ context.Context, entryID, attachmentID uuid.UUID) (*model.BillingAttachment, error) {
	for _, a := range r.attachments[entryID] {
		if a.ID == attachmentID {
			return &a, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeBillingRepo) RemoveAttachment(_ context.Context, entryID, attachmentID uuid.UUID) error {
	kept := r.attachments[entryID][:0]
	for _, a := range r.attachments[entryID] {
		if a.ID != attachmentID {
			kept = append(kept, a)
		}
	}
	r.attachments[entryID] = kept
	return nil
}

type fakeStatementRepo struct {
	statements map[uuid.UUID]*model.Statement
}

func newFakeStatementRepo() *fakeStatementRepo {
	return &fakeStatementRepo{statements: make(map[uuid.UUID]*model.Statement)}
}

func (r *fakeStatementRepo) Create(_ context.Context, s *model.Statement) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.statements[s.ID] = s
	return nil
}

func (r *fakeStatementRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Statement, error) {
	s, ok := r.statements[id]
	if !ok {
		return nil, errNotFound
	}
	return s, nil
}

func (r *fakeStatementRepo) FindByPeriod(_ context.Context, therapistID uuid.UUID, period string) (*model.Statement, error) {
	for _, s := range r.statements {
		if s.TherapistID == therapistID && s.Period == period {
			return s, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeStatementRepo) List(_ context.Context, therapistID string, page, limit int) ([]model.Statement, int64, error) {
	out := make([]model.Statement, 0, len(r.statements))
	for _, s := range r.statements {
		if therapistID != "" && s.TherapistID.String() != therapistID {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeStatementRepo) Update(_ context.Context, s *model.Statement) error {
	r.statements[s.ID] = s
	return nil
}

func (r *fakeStatementRepo) ListDueRetries(_ context.Context, now time.Time, limit int) ([]model.Statement, error) {
	var out []model.Statement
	for _, s := range r.statements {
		if s.Status == model.StatementError && s.NextRetryAt != nil && !s.NextRetryAt.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*model.TherapySession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*model.TherapySession)}
}

func (r *fakeSessionRepo) DB() *gorm.DB { return nil }

func (r *fakeSessionRepo) CreateTx(_ context.Context, _ *gorm.DB, s *model.TherapySession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Trials {
		if s.Trials[i].ID == uuid.Nil {
			s.Trials[i].ID = uuid.New()
		}
		s.Trials[i].SessionID = s.ID
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TherapySession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, errNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) List(_ context.Context, filter dto.SessionFilter) ([]model.TherapySession, int64, error) {
	out := make([]model.TherapySession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSessionRepo) ListForReport(_ context.Context, filter dto.ReportFilter) ([]model.TherapySession, error) {
	out := make([]model.TherapySession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, nil
}

type fakeSupervisionRepo struct {
	links map[uuid.UUID]*model.SupervisionLink
}

func newFakeSupervisionRepo() *fakeSupervisionRepo {
	return &fakeSupervisionRepo{links: make(map[uuid.UUID]*model.SupervisionLink)}
}

func (r *fakeSupervisionRepo) Create(_ context.Context, link *model.SupervisionLink) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	r.links[link.ID] = link
	return nil
}

func (r *fakeSupervisionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.SupervisionLink, error) {
	l, ok := r.links[id]
	if !ok {
		return nil, errNotFound
	}
	return l, nil
}

func (r *fakeSupervisionRepo) List(_ context.Context, filter dto.SupervisionFilter) ([]model.SupervisionLink, int64, error) {
	out := make([]model.SupervisionLink, 0, len(r.links))
	for _, l := range r.links {
		if filter.Status != "" && filter.Status != "all" && l.Status != filter.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSupervisionRepo) Update(_ context.Context, link *model.SupervisionLink) error {
	r.links[link.ID] = link
	return nil
}

func (r *fakeSupervisionRepo) HasActiveOverlap(_ context.Context, supervisorID, clinicianID uuid.UUID, area string, excludeID *uuid.UUID) (bool, error) {
	for _, l := range r.links {
		if excludeID != nil && l.ID == *excludeID {
			continue
		}
		if l.SupervisorID == supervisorID && l.ClinicianID == clinicianID && l.Area == area && l.Status == model.SupervisionActive {
			return true, nil
		}
	}
	return false, nil
}

type fakeClientRepo struct {
	clients   map[uuid.UUID]*model.Client
	anamneses map[uuid.UUID]*model.Anamnesis
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{
		clients:   make(map[uuid.UUID]*model.Client),
		anamneses: make(map[uuid.UUID]*model.Anamnesis),
	}
}

func (r *fakeClientRepo) Create(_ context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clients[c.ID] = c
	return nil
}

func (r *fakeClientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (r *fakeClientRepo) List(_ context.Context, ownerID *uuid.UUID, filter dto.ClientFilter) ([]model.Client, int64, error) {
	out := make([]model.Client, 0, len(r.clients))
	for _, c := range r.clients {
		if ownerID != nil && c.OwnerID != *ownerID {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeClientRepo) Update(_ context.Context, c *model.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *fakeClientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if c, ok := r.clients[id]; ok {
		c.Active = false
	}
	return nil
}

func (r *fakeClientRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	if c, ok := r.clients[id]; ok {
		c.Active = true
	}
	return nil
}

func (r *fakeClientRepo) SaveAnamnesis(_ context.Context, a *model.Anamnesis) error {
	if existing, ok := r.anamneses[a.ClientID]; ok {
		a.ID = existing.ID
	} else if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.anamneses[a.ClientID] = a
	return nil
}

func (r *fakeClientRepo) FindAnamnesis(_ context.Context, clientID uuid.UUID) (*model.Anamnesis, error) {
	a, ok := r.anamneses[clientID]
	if !ok {
		return nil, errNotFound
	}
	return a, nil
}
