package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dealersite/api/internal/domain"
	"github.com/dealersite/api/internal/repository"
	"github.com/dealersite/api/internal/service/auth"
	"github.com/dealersite/api/internal/service/dnsscan"
	"github.com/dealersite/api/internal/service/lead"
	"github.com/dealersite/api/internal/service/onboarding"
	"github.com/dealersite/api/internal/service/propagation"
	"github.com/dealersite/api/internal/service/verify"
	"github.com/dealersite/api/internal/ws"
	"github.com/dealersite/api/pkg/config"
	"github.com/dealersite/api/pkg/crypto"
	jwtpkg "github.com/dealersite/api/pkg/jwt"
)

const testSecret = "router-test-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type dealerRepoStub struct {
	dealers map[string]*domain.Dealer
}

func (s *dealerRepoStub) CreateDealer(_ context.Context, dealer *domain.Dealer) error {
	if s.dealers == nil {
		s.dealers = make(map[string]*domain.Dealer)
	}
	s.dealers[dealer.ID] = dealer
	return nil
}

func (s *dealerRepoStub) GetDealerByEmail(_ context.Context, email string) (*domain.Dealer, error) {
	for _, d := range s.dealers {
		if d.Email == email {
			return d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *dealerRepoStub) GetDealerByID(_ context.Context, id string) (*domain.Dealer, error) {
	if d, ok := s.dealers[id]; ok {
		return d, nil
	}
	return nil, repository.ErrNotFound
}

type onboardingRepoStub struct {
	mu      sync.Mutex
	records map[string]*domain.DomainOnboarding
}

func (s *onboardingRepoStub) put(rec *domain.DomainOnboarding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string]*domain.DomainOnboarding)
	}
	copied := *rec
	s.records[rec.ID] = &copied
}

func (s *onboardingRepoStub) get(id string) (*domain.DomainOnboarding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *onboardingRepoStub) CreateOnboarding(_ context.Context, rec *domain.DomainOnboarding) error {
	s.put(rec)
	return nil
}

func (s *onboardingRepoStub) GetOnboardingByID(_ context.Context, id string) (*domain.DomainOnboarding, error) {
	return s.get(id)
}

func (s *onboardingRepoStub) GetOnboardingByToken(_ context.Context, token string) (*domain.DomainOnboarding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Verification.Token == token {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *onboardingRepoStub) ListOnboardingsByDealer(_ context.Context, dealerID string) ([]domain.DomainOnboarding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DomainOnboarding, 0)
	for _, rec := range s.records {
		if rec.DealerID == dealerID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *onboardingRepoStub) SetVerificationMethod(_ context.Context, id, method string) (*domain.DomainOnboarding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rec.CurrentState != domain.StateDomainCollection && rec.CurrentState != domain.StateVerificationPending {
		return nil, repository.ErrInvalidArgument
	}
	rec.Verification.Method = &method
	rec.CurrentState = domain.StateVerificationPending
	copied := *rec
	return &copied, nil
}

func (s *onboardingRepoStub) IncrementVerificationAttempts(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		rec.Verification.Attempts++
	}
	return nil
}

func (s *onboardingRepoStub) MarkVerified(_ context.Context, id string, at time.Time) (*domain.DomainOnboarding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rec.Verification.Status != domain.VerificationStatusPending {
		return nil, repository.ErrInvalidArgument
	}
	rec.Verification.Status = domain.VerificationStatusVerified
	rec.Verification.VerifiedAt = &at
	rec.CurrentState = domain.StateVerificationComplete
	copied := *rec
	return &copied, nil
}

func (s *onboardingRepoStub) SaveAnalysis(_ context.Context, id string, analysis *domain.DNSAnalysis) (*domain.DomainOnboarding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rec.CurrentState != domain.StateVerificationComplete && rec.CurrentState != domain.StateDNSAnalysis {
		return nil, repository.ErrInvalidArgument
	}
	rec.Analysis = analysis
	rec.CurrentState = domain.StateDNSAnalysis
	copied := *rec
	return &copied, nil
}

func (s *onboardingRepoStub) SaveConfiguration(_ context.Context, id string, cfg *domain.Configuration) (*domain.DomainOnboarding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rec.CurrentState != domain.StateDNSAnalysis && rec.CurrentState != domain.StateConfigurationPending {
		return nil, repository.ErrInvalidArgument
	}
	rec.Configuration = cfg
	rec.CurrentState = domain.StateConfigurationPending
	copied := *rec
	return &copied, nil
}

func (s *onboardingRepoStub) MarkConfigured(_ context.Context, id string) (*domain.DomainOnboarding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rec.CurrentState != domain.StateConfigurationPending {
		return nil, repository.ErrInvalidArgument
	}
	rec.CurrentState = domain.StateConfigurationComplete
	copied := *rec
	return &copied, nil
}

type leadRepoStub struct {
	mu    sync.Mutex
	leads []domain.Lead
}

func (s *leadRepoStub) CreateLead(_ context.Context, l *domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, *l)
	return nil
}

func (s *leadRepoStub) ListLeadsByDealer(_ context.Context, dealerID string, _, _ int) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Lead, 0)
	for _, l := range s.leads {
		if l.DealerID == dealerID {
			out = append(out, l)
		}
	}
	return out, nil
}

type resolverStub struct {
	txt   map[string][]string
	hosts map[string][]string
}

func (s resolverStub) LookupTXT(_ context.Context, name string) ([]string, error) {
	if values, ok := s.txt[name]; ok {
		return values, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (s resolverStub) LookupHost(_ context.Context, name string) ([]string, error) {
	if addrs, ok := s.hosts[name]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (s resolverStub) LookupNS(context.Context, string) ([]string, error) {
	return nil, &net.DNSError{Err: "no such host", IsNotFound: true}
}

func (s resolverStub) LookupMX(context.Context, string) ([]string, error) {
	return nil, &net.DNSError{Err: "no such host", IsNotFound: true}
}

func (s resolverStub) LookupCNAME(context.Context, string) (string, error) {
	return "", &net.DNSError{Err: "no such host", IsNotFound: true}
}

type routerFixture struct {
	router      *Router
	onboardings *onboardingRepoStub
	leads       *leadRepoStub
	token       string
	dealerID    string
}

func setupRouter(t *testing.T, resolver resolverStub) routerFixture {
	t.Helper()
	logger := testLogger()
	cfg := config.APIConfig{
		JWTSecret:       testSecret,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}

	hash, err := crypto.HashPassword("Testing123!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	dealer := &domain.Dealer{ID: "dealer-1", Email: "owner@smithmotors.com", PasswordHash: hash, DealershipName: "Smith Motors"}
	dealers := &dealerRepoStub{dealers: map[string]*domain.Dealer{dealer.ID: dealer}}

	token, err := jwtpkg.GenerateToken(dealer.ID, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	onboardings := &onboardingRepoStub{}
	leads := &leadRepoStub{}

	authSvc := auth.New(dealers, logger, cfg)
	verifier := verify.NewVerifier(resolver, nil, logger, time.Second)
	scanner := dnsscan.NewScanner(resolver, logger)
	checker := propagation.NewChecker(resolver, logger)
	hub := ws.NewHub()
	onboardingSvc := onboarding.New(onboardings, verifier, scanner, checker, hub, logger, "198.51.100.7", 24*time.Hour)
	leadSvc := lead.New(leads, logger)

	router := NewRouter(logger, authSvc, onboardingSvc, leadSvc, hub, nil, nil)
	t.Cleanup(router.Close)

	return routerFixture{router: router, onboardings: onboardings, leads: leads, token: token, dealerID: dealer.ID}
}

func doJSON(t *testing.T, router *Router, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestStartOnboardingCreatesRecord(t *testing.T) {
	fx := setupRouter(t, resolverStub{})

	rr := doJSON(t, fx.router, http.MethodPost, "/domain/start-onboarding", fx.token, map[string]string{
		"domain_name": "https://www.SmithMotors.com/",
		"registrar":   "GoDaddy",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var result struct {
		OnboardingID string `json:"onboarding_id"`
		DomainName   string `json:"domain_name"`
		CurrentState string `json:"current_state"`
		Token        string `json:"verification_token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.DomainName != "smithmotors.com" {
		t.Fatalf("expected normalized domain, got %q", result.DomainName)
	}
	if result.CurrentState != domain.StateDomainCollection {
		t.Fatalf("expected domain_collection, got %q", result.CurrentState)
	}
	if !strings.HasPrefix(result.Token, verify.TokenPrefix) {
		t.Fatalf("unexpected token %q", result.Token)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "60" {
		t.Fatalf("expected rate limit header, got %q", got)
	}
	if _, err := fx.onboardings.get(result.OnboardingID); err != nil {
		t.Fatalf("record not stored: %v", err)
	}
}

func TestStartOnboardingRequiresAuth(t *testing.T) {
	fx := setupRouter(t, resolverStub{})
	rr := doJSON(t, fx.router, http.MethodPost, "/domain/start-onboarding", "", map[string]string{"domain_name": "smithmotors.com"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestStartOnboardingRejectsBadDomain(t *testing.T) {
	fx := setupRouter(t, resolverStub{})
	rr := doJSON(t, fx.router, http.MethodPost, "/domain/start-onboarding", fx.token, map[string]string{"domain_name": "not a domain"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestVerifyOwnershipOtherDealersRecord(t *testing.T) {
	fx := setupRouter(t, resolverStub{})
	fx.onboardings.put(&domain.DomainOnboarding{
		ID:           "ob-other",
		DealerID:     "dealer-2",
		DomainName:   "other.com",
		CurrentState: domain.StateDomainCollection,
		Verification: domain.Verification{
			Status:    domain.VerificationStatusPending,
			Token:     "dealersite-verify-other",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	})

	rr := doJSON(t, fx.router, http.MethodPost, "/domain/verify-ownership", fx.token, map[string]string{
		"onboarding_id": "ob-other",
		"method":        domain.MethodDNSTXT,
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestOnboardingFlowThroughConfigure(t *testing.T) {
	resolver := resolverStub{
		txt:   map[string][]string{},
		hosts: map[string][]string{},
	}
	fx := setupRouter(t, resolver)

	rr := doJSON(t, fx.router, http.MethodPost, "/domain/start-onboarding", fx.token, map[string]string{"domain_name": "smithmotors.com"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d", rr.Code)
	}
	var started struct {
		OnboardingID string `json:"onboarding_id"`
		Token        string `json:"verification_token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}

	// Scanning before verification is a workflow violation.
	rr = doJSON(t, fx.router, http.MethodGet, "/domain/dns-scan/"+started.OnboardingID, fx.token, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("scan before verify: expected 409, got %d", rr.Code)
	}

	// The dealer adds the TXT record; the verify call now succeeds.
	resolver.txt["smithmotors.com"] = []string{started.Token}
	rr = doJSON(t, fx.router, http.MethodPost, "/domain/verify-ownership", fx.token, map[string]string{
		"onboarding_id": started.OnboardingID,
		"method":        domain.MethodDNSTXT,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var outcome struct {
		Verified     bool   `json:"verified"`
		CurrentState string `json:"current_state"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode verify response: %v", err)
	}
	if !outcome.Verified || outcome.CurrentState != domain.StateVerificationComplete {
		t.Fatalf("expected verified record: %+v", outcome)
	}

	rr = doJSON(t, fx.router, http.MethodGet, "/domain/dns-scan/"+started.OnboardingID, fx.token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("scan: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// Choosing the subdomain route without a label names the missing field.
	rr = doJSON(t, fx.router, http.MethodPost, "/domain/configure", fx.token, map[string]string{
		"onboarding_id":    started.OnboardingID,
		"deployment_route": domain.RouteSubdomain,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("configure without subdomain: expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "subdomain") {
		t.Fatalf("error should name the missing field: %s", rr.Body.String())
	}

	rr = doJSON(t, fx.router, http.MethodPost, "/domain/configure", fx.token, map[string]string{
		"onboarding_id":    started.OnboardingID,
		"deployment_route": domain.RouteSubdomain,
		"subdomain":        "Shop",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("configure: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var configured struct {
		CurrentState string             `json:"current_state"`
		TargetDomain string             `json:"target_domain"`
		Records      []domain.DNSRecord `json:"dns_records_to_add"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&configured); err != nil {
		t.Fatalf("decode configure response: %v", err)
	}
	if configured.TargetDomain != "shop.smithmotors.com" {
		t.Fatalf("subdomain should be lowercased into the target: %+v", configured)
	}
	if configured.CurrentState != domain.StateConfigurationPending || len(configured.Records) != 2 {
		t.Fatalf("unexpected configure result: %+v", configured)
	}

	rr = doJSON(t, fx.router, http.MethodGet, "/domain/propagation-status/"+started.OnboardingID, fx.token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("propagation: expected 200, got %d", rr.Code)
	}
	var prop struct {
		CurrentState string `json:"current_state"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&prop); err != nil {
		t.Fatalf("decode propagation response: %v", err)
	}
	if prop.CurrentState != domain.StateConfigurationPending {
		t.Fatalf("records not yet added, state should stay pending: %+v", prop)
	}
}

func TestDownloadVerificationFile(t *testing.T) {
	fx := setupRouter(t, resolverStub{})
	fx.onboardings.put(&domain.DomainOnboarding{
		ID:           "ob-1",
		DealerID:     fx.dealerID,
		DomainName:   "smithmotors.com",
		CurrentState: domain.StateDomainCollection,
		Verification: domain.Verification{
			Status:    domain.VerificationStatusPending,
			Token:     "dealersite-verify-filetoken",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	})

	rr := doJSON(t, fx.router, http.MethodGet, "/domain/download-verification-file?token=dealersite-verify-filetoken", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, verify.VerificationFileName) {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if !strings.Contains(rr.Body.String(), "dealersite-verify-filetoken") {
		t.Fatalf("file body must embed the token")
	}

	rr = doJSON(t, fx.router, http.MethodGet, "/domain/download-verification-file?token=dealersite-verify-nope", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown token: expected 404, got %d", rr.Code)
	}
}

func TestLeadIntakeIsPublic(t *testing.T) {
	fx := setupRouter(t, resolverStub{})

	rr := doJSON(t, fx.router, http.MethodPost, "/leads/"+fx.dealerID, "", map[string]string{
		"name":  "Jane Buyer",
		"email": "jane@example.com",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, fx.router, http.MethodPost, "/leads/"+fx.dealerID, "", map[string]string{"name": "No Contact"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("lead without contact: expected 400, got %d", rr.Code)
	}

	rr = doJSON(t, fx.router, http.MethodGet, "/leads", fx.token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list leads: expected 200, got %d", rr.Code)
	}
	var listed struct {
		Leads []domain.Lead `json:"leads"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&listed); err != nil {
		t.Fatalf("decode leads: %v", err)
	}
	if len(listed.Leads) != 1 || listed.Leads[0].Name != "Jane Buyer" {
		t.Fatalf("unexpected leads: %+v", listed.Leads)
	}
}

func TestHealthzReportsDatabaseDown(t *testing.T) {
	fx := setupRouter(t, resolverStub{})
	failing := NewRouter(testLogger(), auth.Service{}, nil, lead.Service{}, nil, nil, func(context.Context) error {
		return errors.New("connection refused")
	})
	t.Cleanup(failing.Close)

	rr := doJSON(t, failing, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "degraded") {
		t.Fatalf("expected degraded status: %s", rr.Body.String())
	}

	rr = doJSON(t, fx.router, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 without db check, got %d", rr.Code)
	}
}
