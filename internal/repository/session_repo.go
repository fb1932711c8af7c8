package repository

import (
	"context"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	// DB exposes the underlying handle so services can run the session and
	// its billing entry in one transaction; nil in unit tests.
	DB() *gorm.DB
	CreateTx(ctx context.Context, tx *gorm.DB, s *model.TherapySession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TherapySession, error)
	List(ctx context.Context, filter dto.SessionFilter) ([]model.TherapySession, int64, error)
	ListForReport(ctx context.Context, filter dto.ReportFilter) ([]model.TherapySession, error)
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) CreateTx(ctx context.Context, tx *gorm.DB, s *model.TherapySession) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TherapySession, error) {
	var s model.TherapySession
	err := r.db.WithContext(ctx).Preload("Trials").First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) List(ctx context.Context, filter dto.SessionFilter) ([]model.TherapySession, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.TherapySession{})
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.ProgramID != "" {
		q = q.Where("program_id = ?", filter.ProgramID)
	}
	if filter.From != "" {
		q = q.Where("session_date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("session_date <= ?", filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []model.TherapySession
	err := q.Preload("Trials").
		Order("session_date asc, created_at asc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&sessions).Error
	return sessions, total, err
}

// ListForReport returns every matching session with trials in chronological
// order. Reports consume the whole series, not a page.
func (r *sessionRepo) ListForReport(ctx context.Context, filter dto.ReportFilter) ([]model.TherapySession, error) {
	q := r.db.WithContext(ctx).Where("client_id = ?", filter.ClientID)
	if filter.ProgramID != "" {
		q = q.Where("program_id = ?", filter.ProgramID)
	}
	if filter.From != "" {
		q = q.Where("session_date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("session_date <= ?", filter.To)
	}
	var sessions []model.TherapySession
	err := q.Preload("Trials").Order("session_date asc, created_at asc").Find(&sessions).Error
	return sessions, err
}
