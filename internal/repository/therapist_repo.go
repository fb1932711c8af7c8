package repository

import (
	"context"

	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TherapistRepository interface {
	Create(ctx context.Context, t *model.Therapist) error
	FindByUsername(ctx context.Context, username string) (*model.Therapist, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Therapist, error)
	List(ctx context.Context, includeInactive bool) ([]model.Therapist, error)
	Update(ctx context.Context, t *model.Therapist) error
	ReplaceAreaRoles(ctx context.Context, id uuid.UUID, pairs []model.TherapistAreaRole) error
	ReplaceRates(ctx context.Context, id uuid.UUID, rates []model.TherapistRate) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
}

type therapistRepo struct{ db *gorm.DB }

func NewTherapistRepository(db *gorm.DB) TherapistRepository { return &therapistRepo{db: db} }

func (r *therapistRepo) Create(ctx context.Context, t *model.Therapist) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *therapistRepo) FindByUsername(ctx context.Context, username string) (*model.Therapist, error) {
	var t model.Therapist
	// Accept login by username OR email (case-insensitive email match)
	err := r.db.WithContext(ctx).
		Preload("AreaRoles").Preload("Rates").
		Where("(username = ? OR LOWER(email::text) = LOWER(?)) AND active = true", username, username).
		First(&t).Error
	return &t, err
}

func (r *therapistRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	var t model.Therapist
	err := r.db.WithContext(ctx).Preload("AreaRoles").Preload("Rates").First(&t, id).Error
	return &t, err
}

func (r *therapistRepo) List(ctx context.Context, includeInactive bool) ([]model.Therapist, error) {
	var therapists []model.Therapist
	q := r.db.WithContext(ctx).Preload("AreaRoles")
	if !includeInactive {
		q = q.Where("active = true")
	}
	err := q.Find(&therapists).Error
	return therapists, err
}

func (r *therapistRepo) Update(ctx context.Context, t *model.Therapist) error {
	return r.db.WithContext(ctx).Omit("AreaRoles", "Rates").Save(t).Error
}

func (r *therapistRepo) ReplaceAreaRoles(ctx context.Context, id uuid.UUID, pairs []model.TherapistAreaRole) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("therapist_id = ?", id).Delete(&model.TherapistAreaRole{}).Error; err != nil {
			return err
		}
		if len(pairs) == 0 {
			return nil
		}
		return tx.Create(&pairs).Error
	})
}

func (r *therapistRepo) ReplaceRates(ctx context.Context, id uuid.UUID, rates []model.TherapistRate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("therapist_id = ?", id).Delete(&model.TherapistRate{}).Error; err != nil {
			return err
		}
		if len(rates) == 0 {
			return nil
		}
		return tx.Create(&rates).Error
	})
}

func (r *therapistRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Therapist{}).Where("id = ?", id).Update("active", false).Error
}

func (r *therapistRepo) Reactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Therapist{}).Where("id = ?", id).Update("active", true).Error
}
