package service

import (
	"context"
	"errors"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/authz"
	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"

	"github.com/google/uuid"
)

// ErrForbidden marks capability failures so handlers can answer 403 instead
// of 500.
var ErrForbidden = errors.New("operation not allowed")

type ClientService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateClientRequest) (*dto.ClientResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ClientResponse, error)
	List(ctx context.Context, actor Actor, filter dto.ClientFilter) (*dto.ClientListResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateClientRequest) (*dto.ClientResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error
	Reactivate(ctx context.Context, actor Actor, id uuid.UUID) error
	SaveAnamnesis(ctx context.Context, actor Actor, clientID uuid.UUID, req dto.SaveAnamnesisRequest) (*dto.AnamnesisResponse, error)
	GetAnamnesis(ctx context.Context, actor Actor, clientID uuid.UUID) (*dto.AnamnesisResponse, error)
}

type clientService struct {
	repo repository.ClientRepository
}

func NewClientService(repo repository.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

func (s *clientService) Create(ctx context.Context, actor Actor, req dto.CreateClientRequest) (*dto.ClientResponse, error) {
	ability := authz.For(actor.UserID, actor.Role)
	if !ability.Can(authz.ActionCreate, authz.SubjectClient, &actor.UserID) {
		return nil, ErrForbidden
	}

	client := &model.Client{
		OwnerID:  actor.UserID,
		Name:     req.Name,
		Guardian: req.Guardian,
		Phone:    req.Phone,
		Email:    req.Email,
		Notes:    req.Notes,
		Active:   true,
	}
	if req.BirthDate != nil {
		bd, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, errors.New("invalid birth date")
		}
		client.BirthDate = &bd
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return clientToResponse(client), nil
}

func (s *clientService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ClientResponse, error) {
	client, err := s.findAllowed(ctx, actor, id, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	return clientToResponse(client), nil
}

func (s *clientService) List(ctx context.Context, actor Actor, filter dto.ClientFilter) (*dto.ClientListResponse, error) {
	// Coordinators and up see the whole clinic; everyone else only their own
	// caseload.
	var ownerScope *uuid.UUID
	ability := authz.For(actor.UserID, actor.Role)
	if !ability.Can(authz.ActionRead, authz.SubjectAll, nil) {
		ownerScope = &actor.UserID
	}

	clients, total, err := s.repo.List(ctx, ownerScope, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ClientListResponse{
		Data:  make([]dto.ClientResponse, len(clients)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range clients {
		resp.Data[i] = *clientToResponse(&clients[i])
	}
	return resp, nil
}

func (s *clientService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateClientRequest) (*dto.ClientResponse, error) {
	client, err := s.findAllowed(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		client.Name = req.Name
	}
	if req.BirthDate != nil {
		bd, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, errors.New("invalid birth date")
		}
		client.BirthDate = &bd
	}
	if req.Guardian != nil {
		client.Guardian = req.Guardian
	}
	if req.Phone != nil {
		client.Phone = req.Phone
	}
	if req.Email != nil {
		client.Email = req.Email
	}
	if req.Notes != nil {
		client.Notes = req.Notes
	}
	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return clientToResponse(client), nil
}

func (s *clientService) Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.findAllowed(ctx, actor, id, authz.ActionDelete); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *clientService) Reactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.findAllowed(ctx, actor, id, authz.ActionUpdate); err != nil {
		return err
	}
	return s.repo.Reactivate(ctx, id)
}

func (s *clientService) SaveAnamnesis(ctx context.Context, actor Actor, clientID uuid.UUID, req dto.SaveAnamnesisRequest) (*dto.AnamnesisResponse, error) {
	if _, err := s.findAllowed(ctx, actor, clientID, authz.ActionUpdate); err != nil {
		return nil, err
	}

	a := &model.Anamnesis{
		ClientID: clientID,
		Answers:  []byte(req.Answers),
		FilledBy: actor.UserID,
	}
	if err := s.repo.SaveAnamnesis(ctx, a); err != nil {
		return nil, err
	}
	return anamnesisToResponse(a), nil
}

func (s *clientService) GetAnamnesis(ctx context.Context, actor Actor, clientID uuid.UUID) (*dto.AnamnesisResponse, error) {
	if _, err := s.findAllowed(ctx, actor, clientID, authz.ActionRead); err != nil {
		return nil, err
	}
	a, err := s.repo.FindAnamnesis(ctx, clientID)
	if err != nil {
		return nil, errors.New("anamnesis not found")
	}
	return anamnesisToResponse(a), nil
}

// findAllowed loads the client and checks the actor's capability against its
// ownership.
func (s *clientService) findAllowed(ctx context.Context, actor Actor, id uuid.UUID, action authz.Action) (*model.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("client not found")
	}
	ability := authz.For(actor.UserID, actor.Role)
	if !ability.Can(action, authz.SubjectClient, &client.OwnerID) {
		return nil, ErrForbidden
	}
	return client, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func clientToResponse(c *model.Client) *dto.ClientResponse {
	resp := &dto.ClientResponse{
		ID:        c.ID.String(),
		OwnerID:   c.OwnerID.String(),
		Name:      c.Name,
		Guardian:  c.Guardian,
		Phone:     c.Phone,
		Email:     c.Email,
		Notes:     c.Notes,
		Active:    c.Active,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
	if c.BirthDate != nil {
		bd := c.BirthDate.Format("2006-01-02")
		resp.BirthDate = &bd
	}
	return resp
}

func anamnesisToResponse(a *model.Anamnesis) *dto.AnamnesisResponse {
	return &dto.AnamnesisResponse{
		ID:        a.ID.String(),
		ClientID:  a.ClientID.String(),
		Answers:   []byte(a.Answers),
		FilledBy:  a.FilledBy.String(),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}
