package dnsscan

import "strings"

// registrarPatterns maps nameserver hostname substrings to registrar names.
// First match wins; the table is ordered by how commonly each shows up in
// dealer domains.
var registrarPatterns = []struct {
	substring string
	name      string
}{
	{"cloudflare", "Cloudflare"},
	{"domaincontrol", "GoDaddy"},
	{"godaddy", "GoDaddy"},
	{"registrar-servers", "Namecheap"},
	{"namecheap", "Namecheap"},
	{"googledomains", "Google Domains"},
	{"squarespacedns", "Squarespace"},
	{"awsdns", "Amazon Route 53"},
	{"digitalocean", "DigitalOcean"},
	{"wixdns", "Wix"},
	{"porkbun", "Porkbun"},
	{"bluehost", "Bluehost"},
	{"hostgator", "HostGator"},
	{"name-services", "Enom"},
	{"ionos", "IONOS"},
}

// DetectRegistrar pattern-matches known nameserver hostnames and returns the
// registrar name, or empty when no pattern matches.
func DetectRegistrar(nameservers []string) string {
	for _, ns := range nameservers {
		host := strings.ToLower(ns)
		for _, pattern := range registrarPatterns {
			if strings.Contains(host, pattern.substring) {
				return pattern.name
			}
		}
	}
	return ""
}

// IsCloudflare reports whether the domain's nameservers are Cloudflare's,
// which unlocks the streamlined proxy setup in the wizard.
func IsCloudflare(nameservers []string) bool {
	return DetectRegistrar(nameservers) == "Cloudflare"
}
