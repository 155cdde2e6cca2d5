package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dealersite/api/internal/dnsx"
	"github.com/dealersite/api/internal/domain"
)

// VerificationFileName is the path the dealer uploads the challenge file to,
// relative to their site root.
const VerificationFileName = "dealersite-verify.html"

const maxChallengeBodySize = 256 * 1024

// ErrUnknownMethod indicates an unsupported verification method was requested.
var ErrUnknownMethod = errors.New("verify: unknown verification method")

// Result is the common outcome shape shared by all verification methods.
// Network and DNS failures are downgraded into Error text, never returned as
// Go errors: retry is the caller's polling loop, not this package.
type Result struct {
	Verified     bool
	FoundRecords []string
	Content      string
	Error        string
}

// HTTPDoer is the slice of http.Client the HTML file check needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Verifier proves domain ownership via DNS TXT lookup or HTTP file fetch.
type Verifier struct {
	resolver     dnsx.Resolver
	client       HTTPDoer
	logger       *slog.Logger
	fetchTimeout time.Duration
}

// NewVerifier constructs a Verifier. A nil client falls back to a default
// http.Client; fetchTimeout bounds each URL variant attempt.
func NewVerifier(resolver dnsx.Resolver, client HTTPDoer, logger *slog.Logger, fetchTimeout time.Duration) *Verifier {
	if resolver == nil {
		resolver = dnsx.NewResolver(0)
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{resolver: resolver, client: client, logger: logger, fetchTimeout: fetchTimeout}
}

// Verify dispatches to the requested proof method.
func (v *Verifier) Verify(ctx context.Context, method, name, expectedToken string) (Result, error) {
	switch method {
	case domain.MethodDNSTXT:
		return v.VerifyDNSTXT(ctx, name, expectedToken), nil
	case domain.MethodHTMLFile:
		return v.VerifyHTMLFile(ctx, name, expectedToken), nil
	case domain.MethodEmail:
		return v.VerifyEmail(ctx, name, expectedToken), nil
	default:
		return Result{}, ErrUnknownMethod
	}
}

// VerifyDNSTXT declares success if any TXT value on the apex domain exactly
// equals the expected token after trimming. Failure reasons are surfaced as
// distinct human-readable messages so the wizard can give actionable guidance.
func (v *Verifier) VerifyDNSTXT(ctx context.Context, domain, expectedToken string) Result {
	apex := ExtractBaseDomain(domain)
	records, err := v.resolver.LookupTXT(ctx, apex)
	if err != nil {
		if dnsx.IsNotFound(err) {
			// net.Resolver answers NXDOMAIN and an empty TXT set with the
			// same not-found error, so probe NS/A to tell an unregistered
			// domain apart from one that just has no TXT records yet.
			if v.domainResolves(ctx, apex) {
				return Result{Error: "no TXT records found - the record may not exist yet or has not propagated"}
			}
			return Result{Error: "domain not found - check it is spelled correctly and registered"}
		}
		v.logger.Warn("txt verification lookup failed", "domain", apex, "error", err)
		return Result{Error: "DNS lookup failed - check the domain name is correct and registered"}
	}
	token := strings.TrimSpace(expectedToken)
	for _, record := range records {
		if strings.TrimSpace(record) == token {
			return Result{Verified: true, FoundRecords: records}
		}
	}
	return Result{FoundRecords: records, Error: "verification record not found yet - DNS changes can take up to an hour to propagate"}
}

func (v *Verifier) domainResolves(ctx context.Context, apex string) bool {
	if ns, err := v.resolver.LookupNS(ctx, apex); err == nil && len(ns) > 0 {
		return true
	}
	hosts, err := v.resolver.LookupHost(ctx, apex)
	return err == nil && len(hosts) > 0
}

// VerifyHTMLFile fetches /dealersite-verify.html at up to four URL variants
// (https/http x bare/www), short-circuiting on the first 200 response whose
// body contains the token. Per-URL failures are deliberately not reported.
func (v *Verifier) VerifyHTMLFile(ctx context.Context, domain, expectedToken string) Result {
	apex := ExtractBaseDomain(domain)
	variants := []string{
		fmt.Sprintf("https://%s/%s", apex, VerificationFileName),
		fmt.Sprintf("https://www.%s/%s", apex, VerificationFileName),
		fmt.Sprintf("http://%s/%s", apex, VerificationFileName),
		fmt.Sprintf("http://www.%s/%s", apex, VerificationFileName),
	}
	token := strings.TrimSpace(expectedToken)
	for _, url := range variants {
		body, ok := v.fetchChallenge(ctx, url)
		if !ok {
			continue
		}
		if strings.Contains(body, token) {
			return Result{Verified: true, Content: body}
		}
	}
	return Result{Error: "verification file not found or token mismatch"}
}

// VerifyEmail is the dispatch target for the email proof method. Email-based
// verification is not offered by the platform; dealers are steered to the DNS
// or file challenge instead.
func (v *Verifier) VerifyEmail(ctx context.Context, domain, expectedToken string) Result {
	return Result{Error: "email verification is not available - use the DNS record or HTML file method"}
}

func (v *Verifier) fetchChallenge(ctx context.Context, url string) (string, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, v.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxChallengeBodySize))
	if err != nil {
		return "", false
	}
	return string(body), true
}
