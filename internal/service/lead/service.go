package lead

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealersite/api/internal/domain"
	"github.com/dealersite/api/internal/repository"
)

var (
	ErrNameRequired    = errors.New("lead: name is required")
	ErrContactRequired = errors.New("lead: email or phone is required")
)

// Service records buyer inquiries submitted through dealer sites.
type Service struct {
	leads  repository.LeadRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(leads repository.LeadRepository, logger *slog.Logger) Service {
	return Service{leads: leads, logger: logger}
}

// Submit validates and stores an inbound lead for the given dealer.
func (s Service) Submit(ctx context.Context, dealerID, name, email, phone, message, source string) (*domain.Lead, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" && phone == "" {
		return nil, ErrContactRequired
	}

	l := &domain.Lead{
		ID:        uuid.NewString(),
		DealerID:  dealerID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Message:   strings.TrimSpace(message),
		Source:    strings.TrimSpace(source),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.leads.CreateLead(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("lead captured", "lead_id", l.ID, "dealer_id", dealerID, "source", l.Source)
	return l, nil
}

// List returns the dealer's leads, newest first.
func (s Service) List(ctx context.Context, dealerID string, limit, offset int) ([]domain.Lead, error) {
	return s.leads.ListLeadsByDealer(ctx, dealerID, limit, offset)
}
