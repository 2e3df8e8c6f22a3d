package spfflatten

import "github.com/dean-jl/dnsengine/internal/model"

// Benefit classifies whether flattening a domain's SPF record is worth
// doing, from the resolved lookup chain alone (spec.md §4.4 "Benefit
// analysis").
type Benefit string

const (
	BenefitMust        Benefit = "must_flatten"
	BenefitShould      Benefit = "should_flatten"
	BenefitDoNot       Benefit = "do_not_flatten"
	BenefitUnnecessary Benefit = "unnecessary"
)

const (
	mustFlattenLookups   = 10
	shouldFlattenLookups = 8
	unnecessaryLookups   = 3
	doNotFlattenMaxIPs   = 50
)

// AnalyzeBenefit classifies flattening benefit for a resolved lookup
// chain. estimatedFlattenedBytes is the caller's best estimate of the
// output record's length (e.g. from a dry-run Flatten call).
func AnalyzeBenefit(resolved model.SPFLookupResult, estimatedFlattenedBytes int) Benefit {
	totalIPs := len(resolved.IPv4) + len(resolved.IPv6)

	switch {
	case resolved.TotalLookups > mustFlattenLookups:
		return BenefitMust
	case estimatedFlattenedBytes > maxRecordBytes || totalIPs > doNotFlattenMaxIPs:
		return BenefitDoNot
	case resolved.TotalLookups >= shouldFlattenLookups:
		return BenefitShould
	case resolved.TotalLookups <= unnecessaryLookups:
		return BenefitUnnecessary
	default:
		return BenefitShould
	}
}
