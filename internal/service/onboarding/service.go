package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/dealersite/api/internal/domain"
	"github.com/dealersite/api/internal/repository"
	"github.com/dealersite/api/internal/service/dnsconfig"
	"github.com/dealersite/api/internal/service/dnsscan"
	"github.com/dealersite/api/internal/service/propagation"
	"github.com/dealersite/api/internal/service/verify"
)

var (
	ErrInvalidDomain     = errors.New("onboarding: invalid domain name")
	ErrNotOwner          = errors.New("onboarding: record belongs to another dealer")
	ErrTokenExpired      = errors.New("onboarding: verification token expired, start onboarding again")
	ErrInvalidState      = errors.New("onboarding: operation not allowed in the current state")
	ErrUnknownRoute      = errors.New("onboarding: deployment_route must be full_domain or subdomain")
	ErrSubdomainRequired = errors.New("onboarding: subdomain is required for the subdomain route")
	ErrInvalidSubdomain  = errors.New("onboarding: subdomain must be a single DNS label")
	ErrNotConfigured     = errors.New("onboarding: choose a deployment route before checking propagation")
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Broadcaster pushes onboarding events to streaming subscribers.
type Broadcaster interface {
	Broadcast(onboardingID string, payload []byte)
}

// Service walks a dealer's domain through collection, ownership verification,
// DNS analysis, configuration, and propagation. Every state transition goes
// through a conditional repository update, so concurrent polls cannot move a
// record backward.
type Service struct {
	onboardings     repository.OnboardingRepository
	verifier        *verify.Verifier
	scanner         *dnsscan.Scanner
	checker         *propagation.Checker
	events          Broadcaster
	logger          *slog.Logger
	servingIP       string
	verificationTTL time.Duration
}

// New constructs a Service. events may be nil when no streaming hub is wired.
func New(
	onboardings repository.OnboardingRepository,
	verifier *verify.Verifier,
	scanner *dnsscan.Scanner,
	checker *propagation.Checker,
	events Broadcaster,
	logger *slog.Logger,
	servingIP string,
	verificationTTL time.Duration,
) *Service {
	if verificationTTL <= 0 {
		verificationTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		onboardings:     onboardings,
		verifier:        verifier,
		scanner:         scanner,
		checker:         checker,
		events:          events,
		logger:          logger,
		servingIP:       servingIP,
		verificationTTL: verificationTTL,
	}
}

// MethodInstructions explains one way the dealer can prove ownership.
type MethodInstructions struct {
	Method       string `json:"method"`
	RecordType   string `json:"record_type,omitempty"`
	RecordHost   string `json:"record_host,omitempty"`
	RecordValue  string `json:"record_value,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
	DownloadPath string `json:"download_path,omitempty"`
	Instructions string `json:"instructions"`
}

// StartResult is the start-onboarding response payload.
type StartResult struct {
	OnboardingID    string               `json:"onboarding_id"`
	DomainName      string               `json:"domain_name"`
	CurrentState    string               `json:"current_state"`
	Token           string               `json:"verification_token"`
	ExpiresAt       time.Time            `json:"expires_at"`
	Methods         []MethodInstructions `json:"verification_methods"`
	RecommendedNext string               `json:"next_action"`
}

// Start validates the domain, issues a verification token and creates the
// onboarding record in domain_collection.
func (s *Service) Start(ctx context.Context, dealerID, rawDomain, registrar, accessLevel string) (*StartResult, error) {
	domainName := verify.ExtractBaseDomain(rawDomain)
	if !verify.IsValidDomain(domainName) {
		return nil, ErrInvalidDomain
	}
	token, err := verify.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &domain.DomainOnboarding{
		ID:           uuid.NewString(),
		DealerID:     dealerID,
		DomainName:   domainName,
		Registrar:    registrar,
		AccessLevel:  accessLevel,
		CurrentState: domain.StateDomainCollection,
		Verification: domain.Verification{
			Status:    domain.VerificationStatusPending,
			Token:     token,
			ExpiresAt: now.Add(s.verificationTTL),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.onboardings.CreateOnboarding(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("onboarding started", "onboarding_id", rec.ID, "dealer_id", dealerID, "domain", domainName)

	return &StartResult{
		OnboardingID:    rec.ID,
		DomainName:      domainName,
		CurrentState:    rec.CurrentState,
		Token:           token,
		ExpiresAt:       rec.Verification.ExpiresAt,
		Methods:         s.methodInstructions(domainName, token),
		RecommendedNext: "Add the verification record or upload the file, then POST /domain/verify-ownership.",
	}, nil
}

func (s *Service) methodInstructions(domainName, token string) []MethodInstructions {
	return []MethodInstructions{
		{
			Method:       domain.MethodDNSTXT,
			RecordType:   "TXT",
			RecordHost:   "@",
			RecordValue:  token,
			Instructions: fmt.Sprintf("Add a TXT record on %s with the value above. Propagation usually takes a few minutes.", domainName),
		},
		{
			Method:       domain.MethodHTMLFile,
			FileName:     verify.VerificationFileName,
			FilePath:     "/" + verify.VerificationFileName,
			DownloadPath: "/domain/download-verification-file?token=" + token,
			Instructions: fmt.Sprintf("Download the verification file and upload it to the root of your current website, so it is reachable at https://%s/%s.", domainName, verify.VerificationFileName),
		},
	}
}

// VerificationOutcome is returned by both the verify call and the status poll.
type VerificationOutcome struct {
	OnboardingID string    `json:"onboarding_id"`
	DomainName   string    `json:"domain_name"`
	CurrentState string    `json:"current_state"`
	Verified     bool      `json:"verified"`
	Method       string    `json:"method,omitempty"`
	Attempts     int       `json:"attempts"`
	FoundRecords []string  `json:"found_records,omitempty"`
	Error        string    `json:"error,omitempty"`
	Expired      bool      `json:"expired"`
	ExpiresAt    time.Time `json:"expires_at"`
	NextAction   string    `json:"next_action"`
}

// VerifyOwnership records the chosen proof method, runs the check once, and on
// success advances the record to verification_complete. Already-verified
// records short-circuit to a cached success.
func (s *Service) VerifyOwnership(ctx context.Context, dealerID, onboardingID, method string) (*VerificationOutcome, error) {
	rec, err := s.owned(ctx, dealerID, onboardingID)
	if err != nil {
		return nil, err
	}
	if rec.Verified() {
		return s.outcome(rec, verify.Result{Verified: true}), nil
	}
	if rec.TokenExpired(time.Now()) {
		return nil, ErrTokenExpired
	}
	switch method {
	case domain.MethodDNSTXT, domain.MethodHTMLFile, domain.MethodEmail:
	default:
		return nil, verify.ErrUnknownMethod
	}

	rec, err = s.onboardings.SetVerificationMethod(ctx, onboardingID, method)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidArgument) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	return s.runVerification(ctx, rec, method)
}

// VerificationStatus re-runs the stored proof method while the record is
// pending. Verified records answer from state without touching the network.
func (s *Service) VerificationStatus(ctx context.Context, dealerID, onboardingID string) (*VerificationOutcome, error) {
	rec, err := s.owned(ctx, dealerID, onboardingID)
	if err != nil {
		return nil, err
	}
	if rec.Verified() {
		return s.outcome(rec, verify.Result{Verified: true}), nil
	}
	if rec.TokenExpired(time.Now()) {
		out := s.outcome(rec, verify.Result{Error: "verification token expired - start onboarding again for this domain"})
		out.Expired = true
		out.NextAction = "POST /domain/start-onboarding to begin again."
		return out, nil
	}
	if rec.Verification.Method == nil {
		out := s.outcome(rec, verify.Result{})
		out.NextAction = "POST /domain/verify-ownership with your chosen method."
		return out, nil
	}
	return s.runVerification(ctx, rec, *rec.Verification.Method)
}

func (s *Service) runVerification(ctx context.Context, rec *domain.DomainOnboarding, method string) (*VerificationOutcome, error) {
	result, err := s.verifier.Verify(ctx, method, rec.DomainName, rec.Verification.Token)
	if err != nil {
		return nil, err
	}
	if err := s.onboardings.IncrementVerificationAttempts(ctx, rec.ID); err != nil {
		s.logger.Warn("attempt counter update failed", "onboarding_id", rec.ID, "error", err)
	}
	rec.Verification.Attempts++

	if !result.Verified {
		return s.outcome(rec, result), nil
	}

	updated, err := s.onboardings.MarkVerified(ctx, rec.ID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrInvalidArgument) {
			// Lost the race to a concurrent poll; the stored record decides.
			current, getErr := s.onboardings.GetOnboardingByID(ctx, rec.ID)
			if getErr == nil && current.Verified() {
				return s.outcome(current, result), nil
			}
			return nil, ErrTokenExpired
		}
		return nil, err
	}
	s.logger.Info("domain ownership verified", "onboarding_id", updated.ID, "domain", updated.DomainName, "method", method)
	s.publish(updated.ID, "ownership_verified", updated.CurrentState)
	return s.outcome(updated, result), nil
}

func (s *Service) outcome(rec *domain.DomainOnboarding, result verify.Result) *VerificationOutcome {
	out := &VerificationOutcome{
		OnboardingID: rec.ID,
		DomainName:   rec.DomainName,
		CurrentState: rec.CurrentState,
		Verified:     rec.Verified() || result.Verified,
		Attempts:     rec.Verification.Attempts,
		FoundRecords: result.FoundRecords,
		Error:        result.Error,
		ExpiresAt:    rec.Verification.ExpiresAt,
	}
	if rec.Verification.Method != nil {
		out.Method = *rec.Verification.Method
	}
	if out.Verified {
		out.NextAction = "GET /domain/dns-scan/{id} to analyze your domain's DNS."
	} else {
		out.NextAction = "Wait for DNS propagation and poll GET /domain/verification-status/{id}."
	}
	return out
}

// RouteOption describes one deployment route the dealer can choose.
type RouteOption struct {
	Route               string   `json:"route"`
	Description         string   `json:"description"`
	Impact              string   `json:"impact"`
	Recommended         bool     `json:"recommended"`
	SuggestedSubdomains []string `json:"suggested_subdomains,omitempty"`
}

// ScanResult is the dns-scan response payload.
type ScanResult struct {
	OnboardingID string              `json:"onboarding_id"`
	DomainName   string              `json:"domain_name"`
	CurrentState string              `json:"current_state"`
	Analysis     *domain.DNSAnalysis `json:"analysis"`
	Options      []RouteOption       `json:"configuration_options"`
	NextAction   string              `json:"next_action"`
}

// ScanDomain analyzes the verified domain's existing DNS and advances the
// record to dns_analysis. Re-scans refresh the stored analysis.
func (s *Service) ScanDomain(ctx context.Context, dealerID, onboardingID string) (*ScanResult, error) {
	rec, err := s.owned(ctx, dealerID, onboardingID)
	if err != nil {
		return nil, err
	}
	if rec.CurrentState != domain.StateVerificationComplete && rec.CurrentState != domain.StateDNSAnalysis {
		return nil, ErrInvalidState
	}

	analysis := s.scanner.Scan(ctx, rec.DomainName)
	updated, err := s.onboardings.SaveAnalysis(ctx, onboardingID, analysis)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidArgument) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	if rec.CurrentState == domain.StateVerificationComplete {
		s.publish(updated.ID, "dns_analyzed", updated.CurrentState)
	}
	s.logger.Info("domain scanned", "onboarding_id", updated.ID, "domain", updated.DomainName,
		"recommended_route", analysis.RecommendedRoute, "has_website", analysis.HasActiveWebsite, "has_email", analysis.HasEmail)

	return &ScanResult{
		OnboardingID: updated.ID,
		DomainName:   updated.DomainName,
		CurrentState: updated.CurrentState,
		Analysis:     updated.Analysis,
		Options:      routeOptions(updated.Analysis),
		NextAction:   "POST /domain/configure with your chosen deployment_route.",
	}, nil
}

func routeOptions(analysis *domain.DNSAnalysis) []RouteOption {
	fullImpact := "The full domain will point at your new dealership site."
	if analysis.HasActiveWebsite {
		fullImpact = "This will replace existing website content on the domain."
	}
	return []RouteOption{
		{
			Route:       domain.RouteFullDomain,
			Description: "Serve the dealership site on the apex domain and www.",
			Impact:      fullImpact,
			Recommended: analysis.RecommendedRoute == domain.RouteFullDomain,
		},
		{
			Route:               domain.RouteSubdomain,
			Description:         "Serve the dealership site on a subdomain, leaving existing services untouched.",
			Impact:              "Your current website and email keep working unchanged.",
			Recommended:         analysis.RecommendedRoute == domain.RouteSubdomain,
			SuggestedSubdomains: dnsscan.SuggestedSubdomains,
		},
	}
}

// ConfigureResult is the configure response payload.
type ConfigureResult struct {
	OnboardingID         string                     `json:"onboarding_id"`
	CurrentState         string                     `json:"current_state"`
	TargetDomain         string                     `json:"target_domain"`
	Records              []domain.DNSRecord         `json:"dns_records_to_add"`
	Steps                []string                   `json:"steps"`
	RegistrarHints       []string                   `json:"registrar_hints,omitempty"`
	Cloudflare           dnsconfig.CloudflareOption `json:"cloudflare_option"`
	EstimatedPropagation string                     `json:"estimated_propagation"`
	NextAction           string                     `json:"next_action"`
}

// Configure stores the dealer's route choice and emits the DNS records and
// walkthrough for their registrar. Advances the record to
// configuration_pending.
func (s *Service) Configure(ctx context.Context, dealerID, onboardingID, route, subdomain string) (*ConfigureResult, error) {
	rec, err := s.owned(ctx, dealerID, onboardingID)
	if err != nil {
		return nil, err
	}
	switch route {
	case domain.RouteFullDomain:
		subdomain = ""
	case domain.RouteSubdomain:
		if subdomain == "" {
			return nil, ErrSubdomainRequired
		}
		if !subdomainPattern.MatchString(subdomain) {
			return nil, ErrInvalidSubdomain
		}
	default:
		return nil, ErrUnknownRoute
	}

	cfg := &domain.Configuration{
		DeploymentRoute: route,
		TargetDomain:    dnsconfig.TargetDomain(route, rec.DomainName, subdomain),
		DNSRecordsToAdd: dnsconfig.Records(route, rec.DomainName, subdomain, s.servingIP),
	}
	if subdomain != "" {
		cfg.Subdomain = &subdomain
	}
	updated, err := s.onboardings.SaveConfiguration(ctx, onboardingID, cfg)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidArgument) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	s.publish(updated.ID, "configuration_chosen", updated.CurrentState)
	s.logger.Info("deployment route configured", "onboarding_id", updated.ID, "route", route, "target", cfg.TargetDomain)

	registrar := ""
	onCloudflare := false
	if updated.Analysis != nil {
		if updated.Analysis.Registrar != nil {
			registrar = *updated.Analysis.Registrar
		}
		onCloudflare = dnsscan.IsCloudflare(updated.Analysis.Nameservers)
	}

	return &ConfigureResult{
		OnboardingID:         updated.ID,
		CurrentState:         updated.CurrentState,
		TargetDomain:         cfg.TargetDomain,
		Records:              cfg.DNSRecordsToAdd,
		Steps:                dnsconfig.Steps(registrar),
		RegistrarHints:       dnsconfig.RegistrarHints(registrar),
		Cloudflare:           dnsconfig.Cloudflare(onCloudflare),
		EstimatedPropagation: "15-30 minutes",
		NextAction:           "Add the records, then poll GET /domain/propagation-status/{id}.",
	}, nil
}

// PropagationResult is the propagation-status response payload.
type PropagationResult struct {
	OnboardingID string             `json:"onboarding_id"`
	CurrentState string             `json:"current_state"`
	TargetDomain string             `json:"target_domain"`
	Propagation  propagation.Status `json:"propagation"`
	NextAction   string             `json:"next_action"`
}

// PropagationStatus checks the configured records and, on the first fully
// propagated observation, advances the record to configuration_complete.
func (s *Service) PropagationStatus(ctx context.Context, dealerID, onboardingID string) (*PropagationResult, error) {
	rec, err := s.owned(ctx, dealerID, onboardingID)
	if err != nil {
		return nil, err
	}
	if rec.Configuration == nil {
		return nil, ErrNotConfigured
	}
	cfg := rec.Configuration
	subdomain := ""
	if cfg.Subdomain != nil {
		subdomain = *cfg.Subdomain
	}

	status := s.checker.Check(ctx, rec.DomainName, cfg.DeploymentRoute, subdomain, s.servingIP)
	state := rec.CurrentState
	if status.Overall.FullyPropagated && state == domain.StateConfigurationPending {
		updated, err := s.onboardings.MarkConfigured(ctx, onboardingID)
		switch {
		case err == nil:
			state = updated.CurrentState
			s.publish(updated.ID, "domain_live", state)
			s.logger.Info("domain fully propagated", "onboarding_id", updated.ID, "target", cfg.TargetDomain)
		case errors.Is(err, repository.ErrInvalidArgument):
			// A concurrent poll completed the flip first.
			state = domain.StateConfigurationComplete
		default:
			return nil, err
		}
	}

	next := "DNS changes are still propagating. Poll again in a few minutes."
	if state == domain.StateConfigurationComplete {
		next = fmt.Sprintf("Your dealership site is live at https://%s.", cfg.TargetDomain)
	}
	return &PropagationResult{
		OnboardingID: rec.ID,
		CurrentState: state,
		TargetDomain: cfg.TargetDomain,
		Propagation:  status,
		NextAction:   next,
	}, nil
}

// Get returns the dealer's onboarding record.
func (s *Service) Get(ctx context.Context, dealerID, onboardingID string) (*domain.DomainOnboarding, error) {
	return s.owned(ctx, dealerID, onboardingID)
}

// List returns all onboarding records for the dealer, newest first.
func (s *Service) List(ctx context.Context, dealerID string) ([]domain.DomainOnboarding, error) {
	return s.onboardings.ListOnboardingsByDealer(ctx, dealerID)
}

// VerificationFile resolves a token to its challenge file. The token itself
// authenticates the request; no dealer session is required so the file can be
// fetched from any browser.
func (s *Service) VerificationFile(ctx context.Context, token string) (string, error) {
	rec, err := s.onboardings.GetOnboardingByToken(ctx, token)
	if err != nil {
		return "", err
	}
	return verify.HTMLFile(rec.Verification.Token), nil
}

func (s *Service) owned(ctx context.Context, dealerID, onboardingID string) (*domain.DomainOnboarding, error) {
	rec, err := s.onboardings.GetOnboardingByID(ctx, onboardingID)
	if err != nil {
		return nil, err
	}
	if rec.DealerID != dealerID {
		return nil, ErrNotOwner
	}
	return rec, nil
}

type event struct {
	Type         string    `json:"type"`
	OnboardingID string    `json:"onboarding_id"`
	State        string    `json:"state"`
	At           time.Time `json:"at"`
}

func (s *Service) publish(onboardingID, eventType, state string) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(event{Type: eventType, OnboardingID: onboardingID, State: state, At: time.Now().UTC()})
	if err != nil {
		return
	}
	s.events.Broadcast(onboardingID, payload)
}
