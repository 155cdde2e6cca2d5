package dnsconfig

import (
	"fmt"

	"github.com/dealersite/api/internal/domain"
)

// PlatformFingerprint is the static TXT marker every connected domain
// carries. It identifies the domain as platform-managed and is distinct from
// the per-domain ownership token.
const PlatformFingerprint = "dealersite-platform-verification"

// RecordTTL is applied to every record the dealer is asked to create.
const RecordTTL = 300

// TargetDomain returns the hostname the dealer's site will be served from.
func TargetDomain(route, domainName, subdomain string) string {
	if route == domain.RouteSubdomain && subdomain != "" {
		return subdomain + "." + domainName
	}
	return domainName
}

// Records emits the ordered list of DNS records the dealer must create for
// the chosen route. servingIP comes from deployment configuration.
func Records(route, domainName, subdomain, servingIP string) []domain.DNSRecord {
	if route == domain.RouteSubdomain {
		return []domain.DNSRecord{
			{
				Type:        "A",
				Name:        subdomain,
				Value:       servingIP,
				TTL:         RecordTTL,
				Description: fmt.Sprintf("Points %s.%s at your new dealership site", subdomain, domainName),
			},
			{
				Type:        "TXT",
				Name:        subdomain,
				Value:       PlatformFingerprint,
				TTL:         RecordTTL,
				Description: "Marks the subdomain as managed by the platform",
			},
		}
	}
	return []domain.DNSRecord{
		{
			Type:        "A",
			Name:        "@",
			Value:       servingIP,
			TTL:         RecordTTL,
			Description: fmt.Sprintf("Points %s at your new dealership site", domainName),
		},
		{
			Type:        "A",
			Name:        "www",
			Value:       servingIP,
			TTL:         RecordTTL,
			Description: fmt.Sprintf("Points www.%s at your new dealership site", domainName),
		},
		{
			Type:        "TXT",
			Name:        "@",
			Value:       PlatformFingerprint,
			TTL:         RecordTTL,
			Description: "Marks the domain as managed by the platform",
		},
	}
}

// Steps returns the generic walkthrough shown next to the records table.
func Steps(registrar string) []string {
	where := "your domain registrar"
	if registrar != "" {
		where = registrar
	}
	return []string{
		fmt.Sprintf("Log in to %s and open the DNS management page for your domain.", where),
		"Add each record listed below exactly as shown. Use '@' where your registrar asks for the host of a root record.",
		"Save your changes. Most registrars apply them within minutes.",
		"Return to this page - we check propagation automatically and will move you forward once the records are visible.",
	}
}

// registrarHints holds navigation guidance keyed by registrar name. The
// hints are supplementary; missing registrars simply get the generic steps.
var registrarHints = map[string][]string{
	"GoDaddy": {
		"In GoDaddy, open My Products, find your domain and choose DNS > Manage Zones.",
		"GoDaddy labels the host field 'Name'; enter '@' for root records.",
	},
	"Namecheap": {
		"In Namecheap, open Domain List, click Manage next to your domain, then Advanced DNS.",
		"Use '@' as Host for root records and the bare label for subdomains.",
	},
	"Cloudflare": {
		"In Cloudflare, select your domain and open the DNS tab.",
		"Set the proxy status to 'DNS only' (grey cloud) for the A records until setup completes.",
	},
	"Google Domains": {
		"In Google Domains, select your domain, open DNS and scroll to Custom records.",
	},
	"Squarespace": {
		"In Squarespace, open Settings > Domains, pick your domain and choose DNS Settings.",
	},
	"Amazon Route 53": {
		"In the Route 53 console, open Hosted zones, select your domain and choose Create record.",
	},
}

// RegistrarHints returns navigation hints for a known registrar, or nil.
func RegistrarHints(registrar string) []string {
	return registrarHints[registrar]
}

// CloudflareOption describes the streamlined path offered when the domain
// already sits behind Cloudflare nameservers.
type CloudflareOption struct {
	Available   bool     `json:"available"`
	Description string   `json:"description"`
	Steps       []string `json:"steps,omitempty"`
}

// Cloudflare builds the cloudflare_option block for the configure response.
func Cloudflare(onCloudflare bool) CloudflareOption {
	if !onCloudflare {
		return CloudflareOption{
			Description: "Your domain does not use Cloudflare nameservers. Follow the manual configuration below.",
		}
	}
	return CloudflareOption{
		Available:   true,
		Description: "Your domain uses Cloudflare. Add the records in the Cloudflare dashboard; changes usually propagate in under a minute.",
		Steps:       registrarHints["Cloudflare"],
	}
}
