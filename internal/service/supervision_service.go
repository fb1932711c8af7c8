package service

import (
	"context"
	"errors"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"

	"github.com/google/uuid"
)

type SupervisionService interface {
	Create(ctx context.Context, req dto.CreateSupervisionRequest) (*dto.SupervisionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SupervisionResponse, error)
	List(ctx context.Context, filter dto.SupervisionFilter) (*dto.SupervisionListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateSupervisionRequest) (*dto.SupervisionResponse, error)
	End(ctx context.Context, id uuid.UUID, req dto.EndSupervisionRequest) (*dto.SupervisionResponse, error)
	Archive(ctx context.Context, id uuid.UUID) (*dto.SupervisionResponse, error)
}

type supervisionService struct {
	repo       repository.SupervisionRepository
	therapists repository.TherapistRepository
}

func NewSupervisionService(repo repository.SupervisionRepository, therapists repository.TherapistRepository) SupervisionService {
	return &supervisionService{repo: repo, therapists: therapists}
}

func (s *supervisionService) Create(ctx context.Context, req dto.CreateSupervisionRequest) (*dto.SupervisionResponse, error) {
	supervisorID, err := uuid.Parse(req.SupervisorID)
	if err != nil {
		return nil, errors.New("invalid supervisor id")
	}
	clinicianID, err := uuid.Parse(req.ClinicianID)
	if err != nil {
		return nil, errors.New("invalid clinician id")
	}
	if supervisorID == clinicianID {
		return nil, &FieldViolations{Fields: map[string]string{
			"clinician_id": "a therapist cannot supervise themselves",
		}}
	}

	for _, id := range []uuid.UUID{supervisorID, clinicianID} {
		if _, err := s.therapists.FindByID(ctx, id); err != nil {
			return nil, errors.New("therapist not found")
		}
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, errors.New("invalid start date")
	}
	var endDate *time.Time
	if req.EndDate != nil {
		ed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, errors.New("invalid end date")
		}
		if ed.Before(startDate) {
			return nil, &FieldViolations{Fields: map[string]string{
				"end_date": "end date must not be earlier than start date",
			}}
		}
		endDate = &ed
	}

	overlap, err := s.repo.HasActiveOverlap(ctx, supervisorID, clinicianID, req.Area, nil)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, &FieldViolations{Fields: map[string]string{
			"area": "an active link for this pair and area already exists",
		}}
	}

	hierarchy := req.HierarchyLevel
	if hierarchy == 0 {
		hierarchy = 1
	}

	link := &model.SupervisionLink{
		SupervisorID:   supervisorID,
		ClinicianID:    clinicianID,
		Area:           req.Area,
		Scope:          req.Scope,
		HierarchyLevel: hierarchy,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         model.SupervisionActive,
		Notes:          req.Notes,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, err
	}
	return supervisionToResponse(link), nil
}

func (s *supervisionService) Get(ctx context.Context, id uuid.UUID) (*dto.SupervisionResponse, error) {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("supervision link not found")
	}
	return supervisionToResponse(link), nil
}

func (s *supervisionService) List(ctx context.Context, filter dto.SupervisionFilter) (*dto.SupervisionListResponse, error) {
	// Active links are the default view; archived ones must be asked for.
	if filter.Status == "" {
		filter.Status = model.SupervisionActive
	}
	links, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.SupervisionListResponse{
		Data:  make([]dto.SupervisionResponse, len(links)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range links {
		resp.Data[i] = *supervisionToResponse(&links[i])
	}
	return resp, nil
}

func (s *supervisionService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateSupervisionRequest) (*dto.SupervisionResponse, error) {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("supervision link not found")
	}
	if link.Status != model.SupervisionActive {
		return nil, errors.New("only active links can be updated")
	}

	if req.Scope != "" {
		link.Scope = req.Scope
	}
	if req.HierarchyLevel != nil {
		link.HierarchyLevel = *req.HierarchyLevel
	}
	if req.Notes != nil {
		link.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}
	return supervisionToResponse(link), nil
}

func (s *supervisionService) End(ctx context.Context, id uuid.UUID, req dto.EndSupervisionRequest) (*dto.SupervisionResponse, error) {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("supervision link not found")
	}
	if link.Status != model.SupervisionActive {
		return nil, errors.New("only active links can be ended")
	}

	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, errors.New("invalid end date")
	}
	if endDate.Before(link.StartDate) {
		return nil, &FieldViolations{Fields: map[string]string{
			"end_date": "end date must not be earlier than start date",
		}}
	}

	link.EndDate = &endDate
	link.Status = model.SupervisionEnded
	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}
	return supervisionToResponse(link), nil
}

// Archive soft-deletes a link: it disappears from active views but stays in
// the clinical record.
func (s *supervisionService) Archive(ctx context.Context, id uuid.UUID) (*dto.SupervisionResponse, error) {
	link, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("supervision link not found")
	}
	if link.Status == model.SupervisionArchived {
		return supervisionToResponse(link), nil
	}

	link.Status = model.SupervisionArchived
	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}
	return supervisionToResponse(link), nil
}

func supervisionToResponse(l *model.SupervisionLink) *dto.SupervisionResponse {
	resp := &dto.SupervisionResponse{
		ID:             l.ID.String(),
		SupervisorID:   l.SupervisorID.String(),
		ClinicianID:    l.ClinicianID.String(),
		Area:           l.Area,
		Scope:          l.Scope,
		HierarchyLevel: l.HierarchyLevel,
		StartDate:      l.StartDate.Format("2006-01-02"),
		Status:         l.Status,
		Notes:          l.Notes,
	}
	if l.EndDate != nil {
		ed := l.EndDate.Format("2006-01-02")
		resp.EndDate = &ed
	}
	return resp
}
