package domain

import "time"

// Onboarding states, strictly forward-progressing. A record never moves
// backward; expiry or abandonment requires starting a new record.
const (
	StateDomainCollection      = "domain_collection"
	StateVerificationPending   = "verification_pending"
	StateVerificationComplete  = "verification_complete"
	StateDNSAnalysis           = "dns_analysis"
	StateConfigurationPending  = "configuration_pending"
	StateConfigurationComplete = "configuration_complete"
)

// Verification statuses.
const (
	VerificationStatusPending  = "pending"
	VerificationStatusVerified = "verified"
)

// Verification methods.
const (
	MethodDNSTXT   = "dns_txt"
	MethodHTMLFile = "html_file"
	MethodEmail    = "email"
)

// Deployment routes.
const (
	RouteFullDomain = "full_domain"
	RouteSubdomain  = "subdomain"
)

// Verification tracks the ownership proof for a domain onboarding attempt.
type Verification struct {
	Status     string
	Method     *string
	Token      string
	ExpiresAt  time.Time
	Attempts   int
	VerifiedAt *time.Time
}

// DNSAnalysis captures the result of scanning the apex domain's existing DNS
// configuration. Populated once, after ownership verification succeeds.
type DNSAnalysis struct {
	Nameservers      []string  `json:"nameservers"`
	ARecords         []string  `json:"a_records"`
	MXRecords        []string  `json:"mx_records"`
	TXTRecords       []string  `json:"txt_records"`
	CNAMERecords     []string  `json:"cname_records"`
	HasActiveWebsite bool      `json:"has_active_website"`
	HasEmail         bool      `json:"has_email"`
	RecommendedRoute string    `json:"recommended_route"`
	Reason           string    `json:"reason"`
	Warnings         []string  `json:"warnings"`
	Registrar        *string   `json:"registrar,omitempty"`
	ScannedAt        time.Time `json:"scanned_at"`
}

// DNSRecord is a single record the dealer must create at their registrar.
type DNSRecord struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Value       string `json:"value"`
	TTL         int    `json:"ttl"`
	Description string `json:"description"`
}

// Configuration holds the dealer's chosen deployment route and the records the
// platform instructed them to add.
type Configuration struct {
	DeploymentRoute string      `json:"deployment_route"`
	TargetDomain    string      `json:"target_domain"`
	Subdomain       *string     `json:"subdomain,omitempty"`
	DNSRecordsToAdd []DNSRecord `json:"dns_records_to_add"`
}

// DomainOnboarding is one domain-connection attempt by a dealer.
type DomainOnboarding struct {
	ID            string
	DealerID      string
	DomainName    string
	Registrar     string
	AccessLevel   string
	CurrentState  string
	Verification  Verification
	Analysis      *DNSAnalysis
	Configuration *Configuration
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TokenExpired reports whether the verification window has closed.
func (o DomainOnboarding) TokenExpired(now time.Time) bool {
	if o.Verification.ExpiresAt.IsZero() {
		return false
	}
	return now.UTC().After(o.Verification.ExpiresAt.UTC())
}

// Verified reports whether ownership has been proven.
func (o DomainOnboarding) Verified() bool {
	return o.Verification.Status == VerificationStatusVerified
}

// TargetDomain returns the hostname the dealer's site will be served from
// once configuration is chosen, falling back to the apex domain.
func (o DomainOnboarding) TargetDomain() string {
	if o.Configuration == nil {
		return o.DomainName
	}
	return o.Configuration.TargetDomain
}
