package repository

import (
	"context"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatementRepository interface {
	Create(ctx context.Context, s *model.Statement) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Statement, error)
	FindByPeriod(ctx context.Context, therapistID uuid.UUID, period string) (*model.Statement, error)
	List(ctx context.Context, therapistID string, page, limit int) ([]model.Statement, int64, error)
	Update(ctx context.Context, s *model.Statement) error
	ListDueRetries(ctx context.Context, now time.Time, limit int) ([]model.Statement, error)
}

type statementRepo struct{ db *gorm.DB }

func NewStatementRepository(db *gorm.DB) StatementRepository { return &statementRepo{db: db} }

func (r *statementRepo) Create(ctx context.Context, s *model.Statement) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *statementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Statement, error) {
	var s model.Statement
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *statementRepo) FindByPeriod(ctx context.Context, therapistID uuid.UUID, period string) (*model.Statement, error) {
	var s model.Statement
	err := r.db.WithContext(ctx).
		Where("therapist_id = ? AND period = ?", therapistID, period).
		First(&s).Error
	return &s, err
}

func (r *statementRepo) List(ctx context.Context, therapistID string, page, limit int) ([]model.Statement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Statement{})
	if therapistID != "" {
		q = q.Where("therapist_id = ?", therapistID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var statements []model.Statement
	err := q.Order("period desc").Offset((page - 1) * limit).Limit(limit).Find(&statements).Error
	return statements, total, err
}

func (r *statementRepo) Update(ctx context.Context, s *model.Statement) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *statementRepo) ListDueRetries(ctx context.Context, now time.Time, limit int) ([]model.Statement, error) {
	var statements []model.Statement
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.StatementError, now).
		Order("next_retry_at asc").
		Limit(limit).
		Find(&statements).Error
	return statements, err
}
