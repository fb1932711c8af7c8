package repository

import (
	"context"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BillingRepository interface {
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
	CreateTx(ctx context.Context, tx *gorm.DB, e *model.BillingEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BillingEntry, error)
	List(ctx context.Context, filter dto.BillingFilter) ([]model.BillingEntry, int64, error)
	ListApprovedForPeriod(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]model.BillingEntry, error)
	// TransitionStatus flips status only when the entry is still in the
	// expected state and records the audit transition in the same database
	// transaction. Returns rows affected; zero means a concurrent transition
	// won and nothing, audit row included, was written.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string, fields map[string]interface{}, t *model.BillingTransition) (int64, error)
	Update(ctx context.Context, e *model.BillingEntry) error
	AddTransitionTx(ctx context.Context, tx *gorm.DB, t *model.BillingTransition) error
	AddAttachment(ctx context.Context, a *model.BillingAttachment) error
	FindAttachment(ctx context.Context, entryID, attachmentID uuid.UUID) (*model.BillingAttachment, error)
	RemoveAttachment(ctx context.Context, entryID, attachmentID uuid.UUID) error
}

type billingRepo struct{ db *gorm.DB }

func NewBillingRepository(db *gorm.DB) BillingRepository { return &billingRepo{db: db} }

func (r *billingRepo) DB() *gorm.DB { return r.db }

func (r *billingRepo) CreateTx(ctx context.Context, tx *gorm.DB, e *model.BillingEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(e).Error
}

func (r *billingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BillingEntry, error) {
	var e model.BillingEntry
	err := r.db.WithContext(ctx).
		Preload("Transitions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Attachments").
		First(&e, id).Error
	return &e, err
}

func (r *billingRepo) List(ctx context.Context, filter dto.BillingFilter) ([]model.BillingEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.BillingEntry{})
	if filter.TherapistID != "" {
		q = q.Where("therapist_id = ?", filter.TherapistID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
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

	order := "session_date desc, created_at desc"
	if filter.Order == "asc" {
		order = "session_date asc, created_at asc"
	}

	var entries []model.BillingEntry
	err := q.Preload("Attachments").
		Order(order).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&entries).Error
	return entries, total, err
}

func (r *billingRepo) ListApprovedForPeriod(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]model.BillingEntry, error) {
	var entries []model.BillingEntry
	err := r.db.WithContext(ctx).
		Where("therapist_id = ? AND status = ? AND session_date >= ? AND session_date < ?",
			therapistID, model.BillingApproved, from, to).
		Order("session_date asc").
		Find(&entries).Error
	return entries, err
}

func (r *billingRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string, fields map[string]interface{}, t *model.BillingTransition) (int64, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	var rows int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.BillingEntry{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		rows = res.RowsAffected
		if rows == 0 {
			return nil
		}
		return tx.Create(t).Error
	})
	return rows, err
}

func (r *billingRepo) Update(ctx context.Context, e *model.BillingEntry) error {
	return r.db.WithContext(ctx).Omit("Transitions", "Attachments").Save(e).Error
}

func (r *billingRepo) AddTransitionTx(ctx context.Context, tx *gorm.DB, t *model.BillingTransition) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(t).Error
}

func (r *billingRepo) AddAttachment(ctx context.Context, a *model.BillingAttachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *billingRepo) FindAttachment(ctx context.Context, entryID, attachmentID uuid.UUID) (*model.BillingAttachment, error) {
	var a model.BillingAttachment
	err := r.db.WithContext(ctx).
		Where("id = ? AND entry_id = ?", attachmentID, entryID).
		First(&a).Error
	return &a, err
}

func (r *billingRepo) RemoveAttachment(ctx context.Context, entryID, attachmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND entry_id = ?", attachmentID, entryID).
		Delete(&model.BillingAttachment{}).Error
}
