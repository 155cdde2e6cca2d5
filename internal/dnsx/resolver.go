package dnsx

import (
	"context"
	"errors"
	"net"
	"time"
)

// Resolver abstracts the DNS lookups the onboarding workflow performs so tests
// can substitute canned answers.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
	LookupHost(ctx context.Context, name string) ([]string, error)
	LookupNS(ctx context.Context, name string) ([]string, error)
	LookupMX(ctx context.Context, name string) ([]string, error)
	LookupCNAME(ctx context.Context, name string) (string, error)
}

type netResolver struct {
	r       *net.Resolver
	timeout time.Duration
}

// NewResolver wraps net.DefaultResolver with a per-lookup timeout.
func NewResolver(timeout time.Duration) Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return netResolver{r: net.DefaultResolver, timeout: timeout}
}

func (n netResolver) lookupCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, n.timeout)
}

func (n netResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := n.lookupCtx(ctx)
	defer cancel()
	return n.r.LookupTXT(ctx, name)
}

func (n netResolver) LookupHost(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := n.lookupCtx(ctx)
	defer cancel()
	return n.r.LookupHost(ctx, name)
}

func (n netResolver) LookupNS(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := n.lookupCtx(ctx)
	defer cancel()
	records, err := n.r.LookupNS(ctx, name)
	if err != nil {
		return nil, err
	}
	hosts := make([]string, 0, len(records))
	for _, rec := range records {
		hosts = append(hosts, rec.Host)
	}
	return hosts, nil
}

func (n netResolver) LookupMX(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := n.lookupCtx(ctx)
	defer cancel()
	records, err := n.r.LookupMX(ctx, name)
	if err != nil {
		return nil, err
	}
	hosts := make([]string, 0, len(records))
	for _, rec := range records {
		hosts = append(hosts, rec.Host)
	}
	return hosts, nil
}

func (n netResolver) LookupCNAME(ctx context.Context, name string) (string, error) {
	ctx, cancel := n.lookupCtx(ctx)
	defer cancel()
	return n.r.LookupCNAME(ctx, name)
}

// IsNotFound reports whether the lookup error is an authoritative
// name-not-found answer rather than a transient resolver failure.
func IsNotFound(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}
	return false
}
