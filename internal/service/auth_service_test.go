package service

import (
	"context"
	"testing"

	"github.com/agency73code/indigo-gestao-sub010/internal/config"
	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
		JWTRefreshHours:    24,
	}
}

func seedTherapist(repo *fakeTherapistRepo, role string, areaRoles ...model.TherapistAreaRole) *model.Therapist {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret!!"), bcrypt.MinCost)
	return repo.add(&model.Therapist{
		Username:     "ana@indigo.com",
		Name:         "Ana",
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		AreaRoles:    areaRoles,
	})
}

func TestLoginIssuesTokensWithAccessLevel(t *testing.T) {
	repo := newFakeTherapistRepo()
	seedTherapist(repo, "terapeuta", model.TherapistAreaRole{Area: "aba", Role: "coordenador"})
	svc := NewAuthService(repo, nil, nil, testConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana@indigo.com", Password: "s3cret!!"})

	assert.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	// The area role outranks the base role, so the claim carries its level.
	assert.Equal(t, 5, resp.User.AccessLevel)

	token, err := jwt.Parse(resp.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "terapeuta", claims["role"])
	assert.Equal(t, float64(5), claims["access_level"])
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeTherapistRepo()
	seedTherapist(repo, "terapeuta")
	svc := NewAuthService(repo, nil, nil, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana@indigo.com", Password: "nope-nope"})
	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newFakeTherapistRepo()
	therapist := seedTherapist(repo, "terapeuta")
	therapist.Active = false
	svc := NewAuthService(repo, nil, nil, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana@indigo.com", Password: "s3cret!!"})
	assert.EqualError(t, err, "invalid credentials")
}

func TestRefreshRotatesTokens(t *testing.T) {
	repo := newFakeTherapistRepo()
	seedTherapist(repo, "terapeuta")
	svc := NewAuthService(repo, nil, nil, testConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ana@indigo.com", Password: "s3cret!!"})
	assert.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	assert.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
}

func TestRefreshGarbageToken(t *testing.T) {
	repo := newFakeTherapistRepo()
	svc := NewAuthService(repo, nil, nil, testConfig())

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.EqualError(t, err, "invalid or expired refresh token")
}

func TestCreateTherapistHashesPassword(t *testing.T) {
	repo := newFakeTherapistRepo()
	svc := NewAuthService(repo, nil, nil, testConfig())

	resp, err := svc.CreateTherapist(context.Background(), dto.CreateTherapistRequest{
		Username: "bia@indigo.com",
		Name:     "Bia",
		Password: "longenough",
		Role:     "supervisor",
	})

	assert.NoError(t, err)
	assert.Equal(t, 4, resp.AccessLevel)

	stored, err := repo.FindByUsername(context.Background(), "bia@indigo.com")
	assert.NoError(t, err)
	assert.NotEqual(t, "longenough", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("longenough")))
}

func TestUpdateTherapistReplacesRates(t *testing.T) {
	repo := newFakeTherapistRepo()
	therapist := seedTherapist(repo, "terapeuta")
	svc := NewAuthService(repo, nil, nil, testConfig())

	resp, err := svc.UpdateTherapist(context.Background(), therapist.ID, dto.UpdateTherapistRequest{
		Rates: []dto.RateEntry{{AttendanceType: "office", Amount: decimal.NewFromInt(90)}},
	})

	assert.NoError(t, err)
	assert.Len(t, resp.Rates, 1)
	assert.Equal(t, "office", resp.Rates[0].AttendanceType)
	assert.Len(t, therapist.Rates, 1)
}
