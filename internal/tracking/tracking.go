// Package tracking builds and validates branded tracking-domain CNAME
// records (e.g. Smartlead's open.sleadtrack.com).
package tracking

import (
	"fmt"
	"strings"

	"github.com/dean-jl/dnsengine/internal/model"
)

const (
	maxSubdomainLen  = 63
	warnSubdomainLen = 30
)

var commonTrackingNames = map[string]bool{
	"open": true, "click": true, "track": true, "email": true, "mail": true, "links": true,
}

// Record is a built tracking CNAME.
type Record struct {
	Name     string // subdomain.domain
	Target   string // provider target, e.g. open.sleadtrack.com
	Warnings []model.Issue
	Errors   []model.Issue
}

// Build constructs a tracking CNAME for subdomain.domain pointing at
// target, with subdomain validation per spec.md §4.8.
func Build(domain, subdomain, target string) Record {
	rec := Record{
		Name:   fmt.Sprintf("%s.%s", subdomain, domain),
		Target: target,
	}
	rec.Errors = validateErrors(domain, subdomain)
	rec.Warnings = validateWarnings(subdomain)
	return rec
}

func validateErrors(domain, subdomain string) []model.Issue {
	var errs []model.Issue

	if subdomain == "" {
		errs = append(errs, model.NewValidationIssue("subdomain", "subdomain must not be empty"))
		return errs
	}
	if len(subdomain) > maxSubdomainLen {
		errs = append(errs, model.NewValidationIssue("subdomain", "subdomain is %d chars, exceeds the 63-char limit", len(subdomain)))
	}
	if subdomain != strings.ToLower(subdomain) {
		errs = append(errs, model.NewValidationIssue("subdomain", "subdomain must be lowercase"))
	}
	for _, r := range subdomain {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			errs = append(errs, model.NewValidationIssue("subdomain", "subdomain contains invalid character %q", r))
			break
		}
	}
	if strings.HasPrefix(subdomain, "-") || strings.HasSuffix(subdomain, "-") {
		errs = append(errs, model.NewValidationIssue("subdomain", "subdomain must not start or end with a hyphen"))
	}
	if strings.EqualFold(subdomain, domain) {
		errs = append(errs, model.NewValidationIssue("subdomain", "subdomain must not equal the apex domain"))
	}

	return errs
}

func validateWarnings(subdomain string) []model.Issue {
	var warnings []model.Issue

	if len(subdomain) > warnSubdomainLen {
		warnings = append(warnings, model.NewValidationIssue("subdomain", "subdomain is %d chars, unusually long for a tracking domain", len(subdomain)))
	}
	if strings.Contains(subdomain, "--") {
		warnings = append(warnings, model.NewValidationIssue("subdomain", "subdomain contains a double hyphen"))
	}
	if !commonTrackingNames[subdomain] {
		warnings = append(warnings, model.NewValidationIssue("subdomain", "subdomain %q is not a common tracking name", subdomain))
	}

	return warnings
}
