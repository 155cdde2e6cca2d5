package dnsscan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dealersite/api/internal/dnsx"
	"github.com/dealersite/api/internal/domain"
)

// Scanner inspects a domain's existing DNS configuration and recommends a
// deployment route that will not disrupt services already running on it.
type Scanner struct {
	resolver dnsx.Resolver
	logger   *slog.Logger
}

// NewScanner constructs a Scanner.
func NewScanner(resolver dnsx.Resolver, logger *slog.Logger) *Scanner {
	if resolver == nil {
		resolver = dnsx.NewResolver(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{resolver: resolver, logger: logger}
}

// Scan resolves NS, A, MX, TXT and CNAME records for the apex domain and
// derives a route recommendation. The five lookups are independent and run
// concurrently; an individual failure yields an empty list for that record
// type rather than failing the scan, because partial data is still useful.
func (s *Scanner) Scan(ctx context.Context, domainName string) *domain.DNSAnalysis {
	analysis := &domain.DNSAnalysis{ScannedAt: time.Now().UTC()}

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		analysis.Nameservers = s.lookup(ctx, "NS", domainName, s.resolver.LookupNS)
	}()
	go func() {
		defer wg.Done()
		analysis.ARecords = s.lookup(ctx, "A", domainName, s.resolver.LookupHost)
	}()
	go func() {
		defer wg.Done()
		analysis.MXRecords = s.lookup(ctx, "MX", domainName, s.resolver.LookupMX)
	}()
	go func() {
		defer wg.Done()
		analysis.TXTRecords = s.lookup(ctx, "TXT", domainName, s.resolver.LookupTXT)
	}()
	go func() {
		defer wg.Done()
		cname, err := s.resolver.LookupCNAME(ctx, domainName)
		if err != nil || cname == "" {
			analysis.CNAMERecords = []string{}
			return
		}
		analysis.CNAMERecords = []string{cname}
	}()
	wg.Wait()

	analysis.HasActiveWebsite = len(analysis.ARecords) > 0
	analysis.HasEmail = len(analysis.MXRecords) > 0
	analysis.RecommendedRoute, analysis.Reason = recommendRoute(analysis.HasActiveWebsite, analysis.HasEmail)
	analysis.Warnings = buildWarnings(analysis.HasActiveWebsite, analysis.HasEmail)
	if registrar := DetectRegistrar(analysis.Nameservers); registrar != "" {
		analysis.Registrar = &registrar
	}
	return analysis
}

func (s *Scanner) lookup(ctx context.Context, recordType, name string, fn func(context.Context, string) ([]string, error)) []string {
	records, err := fn(ctx, name)
	if err != nil {
		if !dnsx.IsNotFound(err) {
			s.logger.Debug("dns scan lookup failed", "type", recordType, "domain", name, "error", err)
		}
		return []string{}
	}
	if records == nil {
		return []string{}
	}
	return records
}

// recommendRoute encodes the analyzer's one policy decision: never recommend
// an action that would break a live website or mailbox. The dealer can still
// override to full_domain; the recommendation only steers.
func recommendRoute(hasWebsite, hasEmail bool) (route, reason string) {
	switch {
	case hasWebsite && hasEmail:
		return domain.RouteSubdomain, "An existing website and email service were detected on this domain. Using a subdomain keeps both running."
	case hasWebsite:
		return domain.RouteSubdomain, "An existing website was detected on this domain. Using a subdomain keeps it running."
	case hasEmail:
		return domain.RouteSubdomain, "An existing email service was detected on this domain. Using a subdomain keeps your mailboxes working."
	default:
		return domain.RouteFullDomain, "No conflicting services detected. The full domain can point at your new dealership site."
	}
}

func buildWarnings(hasWebsite, hasEmail bool) []string {
	warnings := []string{}
	if hasWebsite {
		warnings = append(warnings, "Pointing the full domain at the platform will replace existing website content.")
	}
	if hasEmail {
		warnings = append(warnings, "Changing apex A records does not move MX records, but verify your email setup before switching routes.")
	}
	return warnings
}

// SuggestedSubdomains are offered as wizard suggestions; they are fixed, not
// derived from analysis.
var SuggestedSubdomains = []string{"shop", "cars", "inventory", "showroom", "deals", "auto"}
