package verify

import (
	"regexp"
	"strings"
)

// Conservative hostname check: dot-separated labels of letters, digits and
// inner hyphens, with an alphabetic TLD of at least two characters.
var domainPattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// IsValidDomain reports whether the input looks like a registrable hostname.
func IsValidDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" || len(domain) > 253 {
		return false
	}
	return domainPattern.MatchString(domain)
}

// ExtractBaseDomain normalizes dealer input to a bare hostname: lowercase,
// no scheme, no www prefix, no path, query, fragment or port. Idempotent.
func ExtractBaseDomain(input string) string {
	domain := strings.ToLower(strings.TrimSpace(input))
	if idx := strings.Index(domain, "://"); idx >= 0 {
		domain = domain[idx+3:]
	}
	for _, sep := range []string{"/", "?", "#"} {
		if idx := strings.Index(domain, sep); idx >= 0 {
			domain = domain[:idx]
		}
	}
	if idx := strings.Index(domain, ":"); idx >= 0 {
		domain = domain[:idx]
	}
	domain = strings.TrimPrefix(domain, "www.")
	return strings.TrimSuffix(domain, ".")
}
