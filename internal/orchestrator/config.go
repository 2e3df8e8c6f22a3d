// Package orchestrator is the record orchestrator (C11): it generates
// the full email-authentication record set for a domain, dedups and
// provisions it against the authoritative provider, and persists the
// result — continuing past per-record failures the way the teacher's
// domain processor continues past a single domain's failure in a
// batch run.
package orchestrator

// Platform is the email platform a domain is configured for.
type Platform string

const (
	PlatformGoogleWorkspace Platform = "google-workspace"
	PlatformMicrosoft365    Platform = "microsoft-365"
	PlatformCustom          Platform = "custom"
)

// DKIMMaterial is the caller-supplied key material for C5, when
// available. Absence degrades to a warning, not a hard failure.
type DKIMMaterial struct {
	Selector  string
	PublicKey string
	KeyType   string
}

// TrackingConfig configures the optional tracking CNAME (C8).
type TrackingConfig struct {
	Subdomain string
	Target    string
}

// SetupConfig is the input to Setup (spec.md §4.11 "setupEmailDNS").
type SetupConfig struct {
	DomainID      string
	DomainFQDN    string
	ZoneID        string
	ProviderToken string
	Platform      Platform

	ExistingSPF        string // optional; flattened via C4 when present
	AdditionalIncludes []string
	DMARCPolicy        string // "none"|"quarantine"|"reject"
	DMARCAggregateRUA  string
	DMARCForensicRUF   string

	DKIM     *DKIMMaterial
	Tracking *TrackingConfig

	SkipDuplicates bool
	DryRun         bool
}
