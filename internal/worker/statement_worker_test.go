package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// Minimal in-memory stubs; only the methods Generate touches do real work.

type stubStatements struct {
	byID map[uuid.UUID]*model.Statement
}

func (s *stubStatements) Create(_ context.Context, st *model.Statement) error {
	s.byID[st.ID] = st
	return nil
}
func (s *stubStatements) FindByID(_ context.Context, id uuid.UUID) (*model.Statement, error) {
	st, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return st, nil
}
func (s *stubStatements) FindByPeriod(_ context.Context, _ uuid.UUID, _ string) (*model.Statement, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubStatements) List(_ context.Context, _ string, _, _ int) ([]model.Statement, int64, error) {
	return nil, 0, nil
}
func (s *stubStatements) Update(_ context.Context, st *model.Statement) error {
	s.byID[st.ID] = st
	return nil
}
func (s *stubStatements) ListDueRetries(_ context.Context, _ time.Time, _ int) ([]model.Statement, error) {
	return nil, nil
}

type stubEntries struct {
	approved []model.BillingEntry
}

func (s *stubEntries) DB() *gorm.DB { return nil }
func (s *stubEntries) CreateTx(_ context.Context, _ *gorm.DB, _ *model.BillingEntry) error { return nil }
func (s *stubEntries) FindByID(_ context.Context, _ uuid.UUID) (*model.BillingEntry, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubEntries) List(_ context.Context, _ dto.BillingFilter) ([]model.BillingEntry, int64, error) {
	return nil, 0, nil
}
func (s *stubEntries) ListApprovedForPeriod(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]model.BillingEntry, error) {
	return s.approved, nil
}
func (s *stubEntries) TransitionStatus(_ context.Context, _ uuid.UUID, _, _ string, _ map[string]interface{}, _ *model.BillingTransition) (int64, error) {
	return 0, nil
}
func (s *stubEntries) Update(_ context.Context, _ *model.BillingEntry) error { return nil }
func (s *stubEntries) AddTransitionTx(_ context.Context, _ *gorm.DB, _ *model.BillingTransition) error {
	return nil
}
func (s *stubEntries) AddAttachment(_ context.Context, _ *model.BillingAttachment) error { return nil }
func (s *stubEntries) FindAttachment(_ context.Context, _, _ uuid.UUID) (*model.BillingAttachment, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubEntries) RemoveAttachment(_ context.Context, _, _ uuid.UUID) error { return nil }

type stubTherapists struct {
	byID map[uuid.UUID]*model.Therapist
}

func (s *stubTherapists) Create(_ context.Context, _ *model.Therapist) error { return nil }
func (s *stubTherapists) FindByUsername(_ context.Context, _ string) (*model.Therapist, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubTherapists) FindByID(_ context.Context, id uuid.UUID) (*model.Therapist, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}
func (s *stubTherapists) List(_ context.Context, _ bool) ([]model.Therapist, error) {
	return nil, nil
}
func (s *stubTherapists) Update(_ context.Context, _ *model.Therapist) error { return nil }
func (s *stubTherapists) ReplaceAreaRoles(_ context.Context, _ uuid.UUID, _ []model.TherapistAreaRole) error {
	return nil
}
func (s *stubTherapists) ReplaceRates(_ context.Context, _ uuid.UUID, _ []model.TherapistRate) error {
	return nil
}
func (s *stubTherapists) SoftDelete(_ context.Context, _ uuid.UUID) error { return nil }
func (s *stubTherapists) Reactivate(_ context.Context, _ uuid.UUID) error { return nil }

func TestGenerateRendersPDFAndTotals(t *testing.T) {
	therapist := &model.Therapist{ID: uuid.New(), Name: "Ana"}
	statement := &model.Statement{
		ID:          uuid.New(),
		TherapistID: therapist.ID,
		Period:      "2026-03",
		Status:      model.StatementPending,
	}

	statements := &stubStatements{byID: map[uuid.UUID]*model.Statement{statement.ID: statement}}
	entries := &stubEntries{approved: []model.BillingEntry{
		{SessionDate: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), AttendanceType: "office", StartTime: "09:00", EndTime: "10:00", Units: 1, Amount: decimal.NewFromInt(120)},
		{SessionDate: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), AttendanceType: "meeting", StartTime: "09:00", EndTime: "11:00", Units: 2, Amount: decimal.NewFromInt(80)},
	}}
	therapists := &stubTherapists{byID: map[uuid.UUID]*model.Therapist{therapist.ID: therapist}}

	w := NewStatementWorker(statements, entries, therapists, nil, t.TempDir())
	err := w.Generate(context.Background(), statement, nil)

	assert.NoError(t, err)
	assert.Equal(t, model.StatementGenerated, statement.Status)
	assert.Equal(t, 2, statement.Entries)
	assert.True(t, statement.Total.Equal(decimal.NewFromInt(200)))
	assert.NotNil(t, statement.PDFPath)
	_, statErr := os.Stat(*statement.PDFPath)
	assert.NoError(t, statErr, "PDF file exists on disk")
	assert.Nil(t, statement.NextRetryAt)
}

func TestGenerateFailureSchedulesRetry(t *testing.T) {
	statement := &model.Statement{
		ID:          uuid.New(),
		TherapistID: uuid.New(), // unknown therapist forces a failure
		Period:      "2026-03",
		Status:      model.StatementPending,
	}
	statements := &stubStatements{byID: map[uuid.UUID]*model.Statement{statement.ID: statement}}

	w := NewStatementWorker(statements, &stubEntries{}, &stubTherapists{byID: map[uuid.UUID]*model.Therapist{}}, nil, t.TempDir())
	err := w.Generate(context.Background(), statement, nil)

	assert.Error(t, err)
	assert.Equal(t, model.StatementError, statement.Status)
	assert.Equal(t, 1, statement.RetryCount)
	assert.NotNil(t, statement.NextRetryAt)
	assert.NotNil(t, statement.LastError)
}

func TestGenerateStopsRetryingAtTheCap(t *testing.T) {
	statement := &model.Statement{
		ID:          uuid.New(),
		TherapistID: uuid.New(),
		Period:      "2026-03",
		RetryCount:  MaxStatementRetries - 1,
		Status:      model.StatementError,
	}
	statements := &stubStatements{byID: map[uuid.UUID]*model.Statement{statement.ID: statement}}

	w := NewStatementWorker(statements, &stubEntries{}, &stubTherapists{byID: map[uuid.UUID]*model.Therapist{}}, nil, t.TempDir())
	err := w.Generate(context.Background(), statement, nil)

	assert.Error(t, err)
	assert.Equal(t, MaxStatementRetries, statement.RetryCount)
	assert.Nil(t, statement.NextRetryAt, "no further retries are scheduled")
}

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, retryBackoff(1))
	assert.Equal(t, 2*time.Minute, retryBackoff(2))
	assert.Equal(t, 4*time.Minute, retryBackoff(3))
	assert.Equal(t, 10*time.Minute, retryBackoff(5), "backoff caps at ten minutes")
}
