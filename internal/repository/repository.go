package repository

import (
	"context"
	"time"

	"github.com/dealersite/api/internal/domain"
)

// DealerRepository persists dealership accounts.
type DealerRepository interface {
	CreateDealer(ctx context.Context, dealer *domain.Dealer) error
	GetDealerByEmail(ctx context.Context, email string) (*domain.Dealer, error)
	GetDealerByID(ctx context.Context, id string) (*domain.Dealer, error)
}

// OnboardingRepository persists domain onboarding attempts. State transitions
// use conditional updates so concurrent pollers cannot move a record backward
// or flip the same gate twice.
type OnboardingRepository interface {
	CreateOnboarding(ctx context.Context, rec *domain.DomainOnboarding) error
	GetOnboardingByID(ctx context.Context, id string) (*domain.DomainOnboarding, error)
	GetOnboardingByToken(ctx context.Context, token string) (*domain.DomainOnboarding, error)
	ListOnboardingsByDealer(ctx context.Context, dealerID string) ([]domain.DomainOnboarding, error)
	// SetVerificationMethod records the chosen proof method and advances
	// domain_collection to verification_pending. Idempotent for the same
	// method while still pending.
	SetVerificationMethod(ctx context.Context, id, method string) (*domain.DomainOnboarding, error)
	IncrementVerificationAttempts(ctx context.Context, id string) error
	// MarkVerified flips verification to verified and advances the state,
	// only while the record is pending and the token unexpired.
	MarkVerified(ctx context.Context, id string, at time.Time) (*domain.DomainOnboarding, error)
	// SaveAnalysis stores the scan result and advances verification_complete
	// to dns_analysis. Re-scans while already in dns_analysis refresh the
	// stored analysis without a state change.
	SaveAnalysis(ctx context.Context, id string, analysis *domain.DNSAnalysis) (*domain.DomainOnboarding, error)
	// SaveConfiguration stores the dealer's route choice and advances
	// dns_analysis to configuration_pending.
	SaveConfiguration(ctx context.Context, id string, cfg *domain.Configuration) (*domain.DomainOnboarding, error)
	// MarkConfigured advances configuration_pending to configuration_complete
	// on first fully-propagated observation.
	MarkConfigured(ctx context.Context, id string) (*domain.DomainOnboarding, error)
}

// LeadRepository persists captured sales leads.
type LeadRepository interface {
	CreateLead(ctx context.Context, lead *domain.Lead) error
	ListLeadsByDealer(ctx context.Context, dealerID string, limit, offset int) ([]domain.Lead, error)
}
