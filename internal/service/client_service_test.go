package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTherapistManagesOnlyOwnClients(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)

	owner := Actor{UserID: uuid.New(), Role: "terapeuta"}
	other := Actor{UserID: uuid.New(), Role: "terapeuta"}

	created, err := svc.Create(context.Background(), owner, dto.CreateClientRequest{Name: "Joao"})
	assert.NoError(t, err)
	id := uuid.MustParse(created.ID)

	_, err = svc.Get(context.Background(), owner, id)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), other, id)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(context.Background(), other, id, dto.UpdateClientRequest{Name: "Hacked"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTherapistCannotDeactivateEvenOwnClient(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)
	owner := Actor{UserID: uuid.New(), Role: "terapeuta"}

	created, err := svc.Create(context.Background(), owner, dto.CreateClientRequest{Name: "Joao"})
	assert.NoError(t, err)

	err = svc.Deactivate(context.Background(), owner, uuid.MustParse(created.ID))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminManagesAnyClient(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)

	owner := Actor{UserID: uuid.New(), Role: "terapeuta"}
	admin := Actor{UserID: uuid.New(), Role: "administrador"}

	created, err := svc.Create(context.Background(), owner, dto.CreateClientRequest{Name: "Joao"})
	assert.NoError(t, err)
	id := uuid.MustParse(created.ID)

	_, err = svc.Get(context.Background(), admin, id)
	assert.NoError(t, err)

	assert.NoError(t, svc.Deactivate(context.Background(), admin, id))
	client, _ := repo.FindByID(context.Background(), id)
	assert.False(t, client.Active)

	assert.NoError(t, svc.Reactivate(context.Background(), admin, id))
	client, _ = repo.FindByID(context.Background(), id)
	assert.True(t, client.Active)
}

func TestListScopesToCaseloadForTherapists(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)

	owner := Actor{UserID: uuid.New(), Role: "terapeuta"}
	admin := Actor{UserID: uuid.New(), Role: "administrador"}

	_ = repo.Create(context.Background(), &model.Client{OwnerID: owner.UserID, Name: "Own", Active: true})
	_ = repo.Create(context.Background(), &model.Client{OwnerID: uuid.New(), Name: "Foreign", Active: true})

	mine, err := svc.List(context.Background(), owner, dto.ClientFilter{})
	assert.NoError(t, err)
	assert.Len(t, mine.Data, 1)
	assert.Equal(t, "Own", mine.Data[0].Name)

	all, err := svc.List(context.Background(), admin, dto.ClientFilter{})
	assert.NoError(t, err)
	assert.Len(t, all.Data, 2)
}

func TestAnamnesisUpsert(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)
	owner := Actor{UserID: uuid.New(), Role: "terapeuta"}

	created, err := svc.Create(context.Background(), owner, dto.CreateClientRequest{Name: "Joao"})
	assert.NoError(t, err)
	id := uuid.MustParse(created.ID)

	first, err := svc.SaveAnamnesis(context.Background(), owner, id, dto.SaveAnamnesisRequest{
		Answers: json.RawMessage(`{"sleep":"poor"}`),
	})
	assert.NoError(t, err)
	assert.Equal(t, owner.UserID.String(), first.FilledBy)

	// Saving again replaces the single form instead of adding a second one.
	second, err := svc.SaveAnamnesis(context.Background(), owner, id, dto.SaveAnamnesisRequest{
		Answers: json.RawMessage(`{"sleep":"better"}`),
	})
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := svc.GetAnamnesis(context.Background(), owner, id)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"sleep":"better"}`, string(got.Answers))
}

func TestAnamnesisFollowsClientOwnership(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)
	owner := Actor{UserID: uuid.New(), Role: "terapeuta"}
	other := Actor{UserID: uuid.New(), Role: "terapeuta"}

	created, err := svc.Create(context.Background(), owner, dto.CreateClientRequest{Name: "Joao"})
	assert.NoError(t, err)
	id := uuid.MustParse(created.ID)

	_, err = svc.SaveAnamnesis(context.Background(), other, id, dto.SaveAnamnesisRequest{
		Answers: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetAnamnesis(context.Background(), other, id)
	assert.ErrorIs(t, err, ErrForbidden)
}
