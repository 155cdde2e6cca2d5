package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dealersite/api/internal/domain"
	"github.com/dealersite/api/internal/repository"
	"github.com/dealersite/api/pkg/config"
	"github.com/dealersite/api/pkg/crypto"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type dealerRepoMock struct {
	createFunc     func(ctx context.Context, dealer *domain.Dealer) error
	getByEmailFunc func(ctx context.Context, email string) (*domain.Dealer, error)
	getByIDFunc    func(ctx context.Context, id string) (*domain.Dealer, error)
}

func (m dealerRepoMock) CreateDealer(ctx context.Context, dealer *domain.Dealer) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, dealer)
	}
	return nil
}

func (m dealerRepoMock) GetDealerByEmail(ctx context.Context, email string) (*domain.Dealer, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m dealerRepoMock) GetDealerByID(ctx context.Context, id string) (*domain.Dealer, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func testConfig() config.APIConfig {
	return config.APIConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func TestSignupNormalizesEmailAndIssuesTokens(t *testing.T) {
	var created *domain.Dealer
	repo := dealerRepoMock{
		createFunc: func(_ context.Context, dealer *domain.Dealer) error {
			created = dealer
			return nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	dealer, tokens, err := svc.Signup(context.Background(), "  Owner@Smith-Motors.COM ", "Testing123!", "Smith Motors")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || created.Email != "owner@smith-motors.com" {
		t.Fatalf("expected normalized email, got %+v", created)
	}
	if dealer.ID == "" {
		t.Fatalf("expected generated dealer id")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}
}

func TestSignupRejectsShortPassword(t *testing.T) {
	svc := New(dealerRepoMock{}, newLogger(), testConfig())
	if _, _, err := svc.Signup(context.Background(), "a@b.com", "short", ""); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := crypto.HashPassword("Testing123!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := dealerRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.Dealer, error) {
			return &domain.Dealer{ID: "dealer-1", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	if _, _, err := svc.Login(context.Background(), "a@b.com", "WrongPass1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthorizeRoundTrip(t *testing.T) {
	hash, err := crypto.HashPassword("Testing123!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	dealer := &domain.Dealer{ID: "dealer-7", Email: "a@b.com", PasswordHash: hash}
	repo := dealerRepoMock{
		getByEmailFunc: func(context.Context, string) (*domain.Dealer, error) { return dealer, nil },
		getByIDFunc: func(_ context.Context, id string) (*domain.Dealer, error) {
			if id != dealer.ID {
				t.Fatalf("unexpected dealer lookup: %s", id)
			}
			return dealer, nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	_, tokens, err := svc.Login(context.Background(), "a@b.com", "Testing123!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	authorized, claims, err := svc.Authorize(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authorized.ID != dealer.ID || claims.DealerID != dealer.ID {
		t.Fatalf("authorize returned wrong dealer: %+v", authorized)
	}
}
