package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/authz"
	"github.com/agency73code/indigo-gestao-sub010/internal/config"
	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/middleware"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CreateTherapist(ctx context.Context, req dto.CreateTherapistRequest) (*dto.TherapistResponse, error)
	GetTherapist(ctx context.Context, id uuid.UUID) (*dto.TherapistResponse, error)
	ListTherapists(ctx context.Context, includeInactive bool) ([]dto.TherapistResponse, error)
	UpdateTherapist(ctx context.Context, id uuid.UUID, req dto.UpdateTherapistRequest) (*dto.TherapistResponse, error)
	DeactivateTherapist(ctx context.Context, id uuid.UUID) error
	ReactivateTherapist(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo    repository.TherapistRepository
	rdb     *redis.Client
	metrics *middleware.Metrics
	cfg     *config.Config
}

// NewAuthService wires the therapist repository with the Redis profile cache.
// rdb and metrics may be nil (unit tests run without them).
func NewAuthService(repo repository.TherapistRepository, rdb *redis.Client, metrics *middleware.Metrics, cfg *config.Config) AuthService {
	return &authService{repo: repo, rdb: rdb, metrics: metrics, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("malformed token")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("malformed token")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Active {
		return nil, errors.New("user not found or inactive")
	}

	return s.issueTokens(user)
}

func (s *authService) issueTokens(user *model.Therapist) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         *therapistToResponse(user),
	}, nil
}

func (s *authService) CreateTherapist(ctx context.Context, req dto.CreateTherapistRequest) (*dto.TherapistResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}
	therapist := &model.Therapist{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	for _, p := range req.AreaRoles {
		therapist.AreaRoles = append(therapist.AreaRoles, model.TherapistAreaRole{Area: p.Area, Role: p.Role})
	}
	for _, r := range req.Rates {
		therapist.Rates = append(therapist.Rates, model.TherapistRate{AttendanceType: r.AttendanceType, Amount: r.Amount})
	}
	if err := s.repo.Create(ctx, therapist); err != nil {
		return nil, err
	}
	return therapistToResponse(therapist), nil
}

func (s *authService) GetTherapist(ctx context.Context, id uuid.UUID) (*dto.TherapistResponse, error) {
	if cached := s.cacheGet(ctx, id); cached != nil {
		return cached, nil
	}

	therapist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("therapist not found")
	}
	resp := therapistToResponse(therapist)
	s.cacheSet(ctx, id, resp)
	return resp, nil
}

func (s *authService) ListTherapists(ctx context.Context, includeInactive bool) ([]dto.TherapistResponse, error) {
	therapists, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.TherapistResponse, len(therapists))
	for i := range therapists {
		resp[i] = *therapistToResponse(&therapists[i])
	}
	return resp, nil
}

func (s *authService) UpdateTherapist(ctx context.Context, id uuid.UUID, req dto.UpdateTherapistRequest) (*dto.TherapistResponse, error) {
	therapist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("therapist not found")
	}
	if req.Name != "" {
		therapist.Name = req.Name
	}
	if req.Email != nil {
		therapist.Email = req.Email
	}
	if req.Role != "" {
		therapist.Role = req.Role
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			return nil, err
		}
		therapist.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, therapist); err != nil {
		return nil, err
	}

	if req.AreaRoles != nil {
		pairs := make([]model.TherapistAreaRole, len(req.AreaRoles))
		for i, p := range req.AreaRoles {
			pairs[i] = model.TherapistAreaRole{TherapistID: id, Area: p.Area, Role: p.Role}
		}
		if err := s.repo.ReplaceAreaRoles(ctx, id, pairs); err != nil {
			return nil, err
		}
		therapist.AreaRoles = pairs
	}
	if req.Rates != nil {
		rates := make([]model.TherapistRate, len(req.Rates))
		for i, r := range req.Rates {
			rates[i] = model.TherapistRate{TherapistID: id, AttendanceType: r.AttendanceType, Amount: r.Amount}
		}
		if err := s.repo.ReplaceRates(ctx, id, rates); err != nil {
			return nil, err
		}
		therapist.Rates = rates
	}

	s.cacheInvalidate(ctx, id)
	return therapistToResponse(therapist), nil
}

func (s *authService) DeactivateTherapist(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, id)
	return nil
}

func (s *authService) ReactivateTherapist(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Reactivate(ctx, id); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, id)
	return nil
}

func (s *authService) generateToken(user *model.Therapist, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":      user.ID.String(),
		"name":         user.Name,
		"role":         user.Role,
		"access_level": accessLevel(user),
		"exp":          time.Now().Add(duration).Unix(),
		"iat":          time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ── Redis profile cache ──────────────────────────────────────────────────────

const therapistCacheName = "therapist"

func (s *authService) cacheKey(id uuid.UUID) string { return "therapist:" + id.String() }

func (s *authService) cacheGet(ctx context.Context, id uuid.UUID) *dto.TherapistResponse {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, s.cacheKey(id)).Bytes()
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrCacheMiss(therapistCacheName)
		}
		return nil
	}
	var resp dto.TherapistResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	if s.metrics != nil {
		s.metrics.IncrCacheHit(therapistCacheName)
	}
	return &resp
}

func (s *authService) cacheSet(ctx context.Context, id uuid.UUID, resp *dto.TherapistResponse) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	ttl := time.Duration(s.cfg.TherapistCacheTTL) * time.Second
	if err := s.rdb.Set(ctx, s.cacheKey(id), raw, ttl).Err(); err != nil {
		log.Debug().Err(err).Str("therapist_id", id.String()).Msg("therapist cache set failed")
	}
}

func (s *authService) cacheInvalidate(ctx context.Context, id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, s.cacheKey(id)).Err(); err != nil {
		log.Debug().Err(err).Str("therapist_id", id.String()).Msg("therapist cache invalidate failed")
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

// accessLevel is the highest level across the base role and every area role.
func accessLevel(t *model.Therapist) int {
	level := authz.Resolve(t.Role)
	pairs := make([]authz.AreaRole, len(t.AreaRoles))
	for i, p := range t.AreaRoles {
		pairs[i] = authz.AreaRole{Area: p.Area, Role: p.Role}
	}
	if max, _ := authz.ResolveMax(pairs); max > level {
		level = max
	}
	return level
}

func therapistToResponse(t *model.Therapist) *dto.TherapistResponse {
	resp := &dto.TherapistResponse{
		ID:          t.ID.String(),
		Username:    t.Username,
		Name:        t.Name,
		Email:       t.Email,
		Role:        t.Role,
		AccessLevel: accessLevel(t),
		Active:      t.Active,
	}
	for _, p := range t.AreaRoles {
		resp.AreaRoles = append(resp.AreaRoles, dto.AreaRolePair{Area: p.Area, Role: p.Role})
	}
	for _, r := range t.Rates {
		resp.Rates = append(resp.Rates, dto.RateEntry{AttendanceType: r.AttendanceType, Amount: r.Amount})
	}
	return resp
}
