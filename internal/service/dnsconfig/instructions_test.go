package dnsconfig

import (
	"strings"
	"testing"

	"github.com/dealersite/api/internal/domain"
)

func TestRecordsFullDomain(t *testing.T) {
	records := Records(domain.RouteFullDomain, "example.com", "", "198.51.100.7")
	if len(records) != 3 {
		t.Fatalf("expected 3 records for full_domain, got %d", len(records))
	}
	if records[0].Type != "A" || records[0].Name != "@" || records[0].Value != "198.51.100.7" {
		t.Fatalf("unexpected apex A record: %+v", records[0])
	}
	if records[1].Type != "A" || records[1].Name != "www" {
		t.Fatalf("unexpected www record: %+v", records[1])
	}
	if records[2].Type != "TXT" || records[2].Name != "@" || records[2].Value != PlatformFingerprint {
		t.Fatalf("unexpected fingerprint record: %+v", records[2])
	}
	for _, rec := range records {
		if rec.TTL != RecordTTL {
			t.Fatalf("expected TTL %d, got %d", RecordTTL, rec.TTL)
		}
		if rec.Description == "" {
			t.Fatalf("every record needs a description: %+v", rec)
		}
	}
}

func TestRecordsSubdomain(t *testing.T) {
	records := Records(domain.RouteSubdomain, "example.com", "shop", "198.51.100.7")
	if len(records) != 2 {
		t.Fatalf("expected 2 records for subdomain, got %d", len(records))
	}
	if records[0].Type != "A" || records[0].Name != "shop" {
		t.Fatalf("unexpected subdomain A record: %+v", records[0])
	}
	if records[1].Type != "TXT" || records[1].Name != "shop" || records[1].Value != PlatformFingerprint {
		t.Fatalf("unexpected fingerprint record: %+v", records[1])
	}
}

func TestTargetDomain(t *testing.T) {
	if got := TargetDomain(domain.RouteFullDomain, "example.com", ""); got != "example.com" {
		t.Fatalf("unexpected full_domain target: %s", got)
	}
	if got := TargetDomain(domain.RouteSubdomain, "example.com", "shop"); got != "shop.example.com" {
		t.Fatalf("unexpected subdomain target: %s", got)
	}
}

func TestRegistrarHints(t *testing.T) {
	if hints := RegistrarHints("GoDaddy"); len(hints) == 0 {
		t.Fatalf("expected hints for GoDaddy")
	}
	if hints := RegistrarHints("Unknown Registrar"); hints != nil {
		t.Fatalf("expected nil for unknown registrar, got %v", hints)
	}
	steps := Steps("Namecheap")
	if len(steps) == 0 || !strings.Contains(steps[0], "Namecheap") {
		t.Fatalf("generic steps should name the registrar when known: %v", steps)
	}
}

func TestCloudflareOption(t *testing.T) {
	opt := Cloudflare(true)
	if !opt.Available || len(opt.Steps) == 0 {
		t.Fatalf("expected available cloudflare option with steps: %+v", opt)
	}
	if opt = Cloudflare(false); opt.Available {
		t.Fatalf("cloudflare option should be unavailable off-cloudflare")
	}
}
