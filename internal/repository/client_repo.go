package repository

import (
	"context"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	List(ctx context.Context, ownerID *uuid.UUID, filter dto.ClientFilter) ([]model.Client, int64, error)
	Update(ctx context.Context, c *model.Client) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error

	SaveAnamnesis(ctx context.Context, a *model.Anamnesis) error
	FindAnamnesis(ctx context.Context, clientID uuid.UUID) (*model.Anamnesis, error)
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

// List scopes to ownerID when non-nil (therapists see only their own clients;
// managers pass nil).
func (r *clientRepo) List(ctx context.Context, ownerID *uuid.UUID, filter dto.ClientFilter) ([]model.Client, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Client{})
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clients []model.Client
	err := q.Order("name asc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&clients).Error
	return clients, total, err
}

func (r *clientRepo) Update(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clientRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Update("active", false).Error
}

func (r *clientRepo) Reactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Update("active", true).Error
}

func (r *clientRepo) SaveAnamnesis(ctx context.Context, a *model.Anamnesis) error {
	// One form per client — upsert keyed by client_id.
	var existing model.Anamnesis
	err := r.db.WithContext(ctx).Where("client_id = ?", a.ClientID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(a).Error
	}
	if err != nil {
		return err
	}
	existing.Answers = a.Answers
	existing.FilledBy = a.FilledBy
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return err
	}
	*a = existing
	return nil
}

func (r *clientRepo) FindAnamnesis(ctx context.Context, clientID uuid.UUID) (*model.Anamnesis, error) {
	var a model.Anamnesis
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&a).Error
	return &a, err
}
