package propagation

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/dealersite/api/internal/dnsx"
	"github.com/dealersite/api/internal/domain"
	"github.com/dealersite/api/internal/service/dnsconfig"
)

// RecordStatus reports a single DNS check.
type RecordStatus struct {
	Type       string   `json:"type"`
	Host       string   `json:"host"`
	Expected   string   `json:"expected"`
	Found      []string `json:"found"`
	Propagated bool     `json:"propagated"`
}

// Overall summarizes how far along propagation is.
type Overall struct {
	Percentage      int  `json:"percentage"`
	FullyPropagated bool `json:"fully_propagated"`
	ChecksPassed    int  `json:"checks_passed"`
	TotalChecks     int  `json:"total_checks"`
}

// Status is a point-in-time propagation snapshot.
type Status struct {
	Overall                Overall                 `json:"overall"`
	Records                map[string]RecordStatus `json:"records"`
	EstimatedTimeRemaining string                  `json:"estimated_time_remaining"`
}

// Checker resolves the target domain's records and reports whether the
// dealer-applied DNS changes have taken effect. It is idempotent and
// side-effect free; advancing onboarding state on full propagation is the
// caller's job.
type Checker struct {
	resolver dnsx.Resolver
	logger   *slog.Logger
}

// NewChecker constructs a Checker.
func NewChecker(resolver dnsx.Resolver, logger *slog.Logger) *Checker {
	if resolver == nil {
		resolver = dnsx.NewResolver(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{resolver: resolver, logger: logger}
}

// Check verifies the expected A records (and the platform fingerprint TXT)
// for the configured route. Any lookup failure counts as "not yet
// propagated" for that check - propagation delay is the expected steady
// state here, not an error.
func (c *Checker) Check(ctx context.Context, domainName, route, subdomain, expectedIP string) Status {
	target := dnsconfig.TargetDomain(route, domainName, subdomain)

	records := make(map[string]RecordStatus)
	records["a_record"] = c.checkA(ctx, target, expectedIP)
	if route == domain.RouteFullDomain {
		records["www_record"] = c.checkA(ctx, "www."+domainName, expectedIP)
	}
	records["txt_record"] = c.checkTXT(ctx, target)

	passed := 0
	for _, rec := range records {
		if rec.Propagated {
			passed++
		}
	}
	total := len(records)
	percentage := int(math.Round(100 * float64(passed) / float64(total)))

	return Status{
		Overall: Overall{
			Percentage:      percentage,
			FullyPropagated: percentage == 100,
			ChecksPassed:    passed,
			TotalChecks:     total,
		},
		Records:                records,
		EstimatedTimeRemaining: estimateRemaining(percentage),
	}
}

func (c *Checker) checkA(ctx context.Context, host, expectedIP string) RecordStatus {
	status := RecordStatus{Type: "A", Host: host, Expected: expectedIP, Found: []string{}}
	addrs, err := c.resolver.LookupHost(ctx, host)
	if err != nil {
		return status
	}
	status.Found = addrs
	for _, addr := range addrs {
		if addr == expectedIP {
			status.Propagated = true
			break
		}
	}
	return status
}

func (c *Checker) checkTXT(ctx context.Context, host string) RecordStatus {
	status := RecordStatus{Type: "TXT", Host: host, Expected: dnsconfig.PlatformFingerprint, Found: []string{}}
	values, err := c.resolver.LookupTXT(ctx, host)
	if err != nil {
		return status
	}
	status.Found = values
	for _, value := range values {
		if strings.Contains(value, dnsconfig.PlatformFingerprint) {
			status.Propagated = true
			break
		}
	}
	return status
}

// estimateRemaining is a coarse banding, presented to dealers as an estimate
// only - propagation timing is outside the platform's control.
func estimateRemaining(percentage int) string {
	switch {
	case percentage == 100:
		return "Complete"
	case percentage > 50:
		return "5-15 minutes"
	default:
		return "15-30 minutes"
	}
}
