package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealersite/api/internal/domain"
	"github.com/dealersite/api/internal/repository"
	"github.com/dealersite/api/pkg/config"
	"github.com/dealersite/api/pkg/crypto"
	jwtpkg "github.com/dealersite/api/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailRequired      = errors.New("auth: email is required")
	ErrPasswordTooShort   = errors.New("auth: password must be at least 8 characters")
)

// Service handles dealer authentication workflows.
type Service struct {
	dealers repository.DealerRepository
	logger  *slog.Logger
	cfg     config.APIConfig
}

// New constructs a Service.
func New(dealers repository.DealerRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{dealers: dealers, logger: logger, cfg: cfg}
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

// Signup registers a new dealership account.
func (s Service) Signup(ctx context.Context, email, password, dealershipName string) (*domain.Dealer, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, TokenPair{}, ErrEmailRequired
	}
	if len(password) < 8 {
		return nil, TokenPair{}, ErrPasswordTooShort
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	dealer := &domain.Dealer{
		ID:             uuid.NewString(),
		Email:          email,
		DealershipName: strings.TrimSpace(dealershipName),
		PasswordHash:   hash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.dealers.CreateDealer(ctx, dealer); err != nil {
		return nil, TokenPair{}, err
	}
	tokens, err := s.issueTokens(dealer.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("dealer registered", "dealer_id", dealer.ID)
	return dealer, tokens, nil
}

// Login authenticates a dealer and returns tokens.
func (s Service) Login(ctx context.Context, email, password string) (*domain.Dealer, TokenPair, error) {
	dealer, err := s.dealers.GetDealerByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if err := crypto.ComparePassword(dealer.PasswordHash, password); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	tokens, err := s.issueTokens(dealer.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("dealer logged in", "dealer_id", dealer.ID)
	return dealer, tokens, nil
}

// Authorize validates a bearer token and returns the associated dealer.
func (s Service) Authorize(ctx context.Context, token string) (*domain.Dealer, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	dealer, err := s.dealers.GetDealerByID(ctx, claims.DealerID)
	if err != nil {
		return nil, nil, err
	}
	return dealer, claims, nil
}

func (s Service) issueTokens(dealerID string) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(dealerID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := jwtpkg.GenerateToken(dealerID, s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}
