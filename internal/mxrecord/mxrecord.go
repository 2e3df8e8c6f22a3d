// Package mxrecord generates MX record sets for a domain's mail
// platform, or validates a caller-supplied custom set.
package mxrecord

import (
	"fmt"
	"regexp"

	"github.com/dean-jl/dnsengine/internal/model"
)

// Entry is one MX record: priority + exchange hostname.
type Entry struct {
	Priority int
	Exchange string
}

// Google Workspace's modern single-record MX set.
var GoogleWorkspace = []Entry{
	{Priority: 1, Exchange: "smtp.google.com"},
}

var hostnameRegexp = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+\.?$`)

const recordName = "@"

// Generate returns the record name and a copy of the given MX set
// (GoogleWorkspace, or a caller-supplied custom set), plus validation
// errors and warnings.
func Generate(set []Entry) (string, []Entry, []model.Issue, []model.Issue) {
	errs, warnings := Validate(set)
	out := make([]Entry, len(set))
	copy(out, set)
	return recordName, out, errs, warnings
}

// Validate checks priority range and hostname shape as hard errors,
// and reports duplicate priorities as a warning only (spec.md §4.7).
func Validate(set []Entry) (errs []model.Issue, warnings []model.Issue) {
	seenPriority := map[int]bool{}

	for _, e := range set {
		if e.Priority < 0 || e.Priority > 65535 {
			errs = append(errs, model.NewValidationIssue("priority", "priority %d out of range [0,65535]", e.Priority))
		}
		if !hostnameRegexp.MatchString(e.Exchange) {
			errs = append(errs, model.NewValidationIssue("exchange", "exchange %q is not a valid hostname", e.Exchange))
		}
		if seenPriority[e.Priority] {
			warnings = append(warnings, model.NewValidationIssue("priority", fmt.Sprintf("duplicate priority %d", e.Priority)))
		}
		seenPriority[e.Priority] = true
	}

	return errs, warnings
}
