package spfparse

import (
	"github.com/dean-jl/dnsengine/internal/model"
)

const (
	maxRecordBytes = 512
	maxLookups     = 10
	lookupWarnAt   = 8
)

// SyntaxReport is the result of ValidateSyntax: hard failures in
// Errors (LimitError/ValidationError kind), non-fatal observations in
// Warnings.
type SyntaxReport struct {
	TotalLookups       int
	ExceedsLookupLimit bool
	ExceedsLength      bool
	Errors             []model.Issue
	Warnings           []model.Issue
}

// ValidateSyntax reports the structural properties and defects of an
// already-parsed record: length, lookup count, and the advisory
// warnings called out in spec.md §4.1. It never itself rejects a
// record — only Parse does, and only for a missing version prefix.
func ValidateSyntax(raw string, rec model.ParsedSPFRecord) SyntaxReport {
	var report SyntaxReport

	report.TotalLookups = CountDNSLookups(rec)
	report.ExceedsLookupLimit = report.TotalLookups > maxLookups
	report.ExceedsLength = len(raw) > maxRecordBytes

	if report.ExceedsLength {
		report.Errors = append(report.Errors, model.NewLimitIssue("record", "spf record is %d bytes, exceeds 512-byte limit", len(raw)))
	}
	if report.ExceedsLookupLimit {
		report.Errors = append(report.Errors, model.NewLimitIssue("lookups", "spf record requires %d dns lookups, exceeds the 10-lookup limit", report.TotalLookups))
	} else if report.TotalLookups >= lookupWarnAt {
		report.Warnings = append(report.Warnings, model.NewValidationIssue("lookups", "spf record requires %d dns lookups, approaching the 10-lookup limit", report.TotalLookups))
	}

	if rec.All == nil {
		report.Warnings = append(report.Warnings, model.NewValidationIssue("all", "spf record has no terminal \"all\" mechanism"))
	}

	for _, m := range rec.Mechanisms {
		switch m.Type {
		case model.MechPTR:
			report.Warnings = append(report.Warnings, model.NewValidationIssue("ptr", "ptr mechanism is discouraged by rfc 7208"))
		case model.MechUnknown:
			report.Warnings = append(report.Warnings, model.NewValidationIssue("mechanism", "unrecognised mechanism %q", m.Raw))
		}
	}

	return report
}

// HasAll reports whether the record ends in an "all" mechanism.
func HasAll(rec model.ParsedSPFRecord) bool {
	return rec.All != nil
}

// IsWellFormed is a quick check used by callers that only need a
// boolean: the prefix is present and every token decomposed to a known
// mechanism type.
func IsWellFormed(raw string) bool {
	rec, err := Parse(raw)
	if err != nil {
		return false
	}
	for _, m := range rec.Mechanisms {
		if m.Type == model.MechUnknown {
			return false
		}
	}
	return true
}
