package repository

import (
	"context"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupervisionRepository interface {
	Create(ctx context.Context, link *model.SupervisionLink) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SupervisionLink, error)
	List(ctx context.Context, filter dto.SupervisionFilter) ([]model.SupervisionLink, int64, error)
	Update(ctx context.Context, link *model.SupervisionLink) error
	// HasActiveOverlap reports whether the pair already has an active link
	// for the same area.
	HasActiveOverlap(ctx context.Context, supervisorID, clinicianID uuid.UUID, area string, excludeID *uuid.UUID) (bool, error)
}

type supervisionRepo struct{ db *gorm.DB }

func NewSupervisionRepository(db *gorm.DB) SupervisionRepository { return &supervisionRepo{db: db} }

func (r *supervisionRepo) Create(ctx context.Context, link *model.SupervisionLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *supervisionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SupervisionLink, error) {
	var link model.SupervisionLink
	err := r.db.WithContext(ctx).First(&link, id).Error
	return &link, err
}

func (r *supervisionRepo) List(ctx context.Context, filter dto.SupervisionFilter) ([]model.SupervisionLink, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.SupervisionLink{})
	if filter.SupervisorID != "" {
		q = q.Where("supervisor_id = ?", filter.SupervisorID)
	}
	if filter.ClinicianID != "" {
		q = q.Where("clinician_id = ?", filter.ClinicianID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var links []model.SupervisionLink
	err := q.Order("start_date desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&links).Error
	return links, total, err
}

func (r *supervisionRepo) Update(ctx context.Context, link *model.SupervisionLink) error {
	return r.db.WithContext(ctx).Save(link).Error
}

func (r *supervisionRepo) HasActiveOverlap(ctx context.Context, supervisorID, clinicianID uuid.UUID, area string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.SupervisionLink{}).
		Where("supervisor_id = ? AND clinician_id = ? AND area = ? AND status = ?",
			supervisorID, clinicianID, area, model.SupervisionActive)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
