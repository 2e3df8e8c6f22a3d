package dmarc

// policyLevel orders the three DMARC policies from laxest to
// strictest for progression comparisons.
var policyLevel = map[Policy]int{
	PolicyNone:       0,
	PolicyQuarantine: 1,
	PolicyReject:     2,
}

// reachable is the valid-transition graph from spec.md §4.6: none may
// move to any policy, quarantine may hold or tighten to reject, reject
// is terminal.
var reachable = map[Policy]map[Policy]bool{
	PolicyNone:       {PolicyNone: true, PolicyQuarantine: true, PolicyReject: true},
	PolicyQuarantine: {PolicyQuarantine: true, PolicyReject: true},
	PolicyReject:     {PolicyReject: true},
}

// Progression is the result of validatePolicyProgression.
type Progression struct {
	IsValid bool
	IsSafe  bool
}

// ValidatePolicyProgression checks a proposed policy transition.
// IsValid holds iff new is reachable from current in the progression
// graph. IsSafe holds iff the new policy is at most one level stricter
// than the current one — a none→reject jump is valid but unsafe.
func ValidatePolicyProgression(current, proposed Policy) Progression {
	valid := reachable[current] != nil && reachable[current][proposed]

	currentLevel, okC := policyLevel[current]
	newLevel, okN := policyLevel[proposed]
	safe := okC && okN && (newLevel == currentLevel || newLevel == currentLevel+1)

	return Progression{IsValid: valid, IsSafe: safe}
}

// Recommend derives a policy recommendation from domain age and
// whether SPF/DKIM authentication is in place (spec.md §4.6).
func Recommend(domainAgeDays int, hasSPF, hasDKIM bool) Policy {
	if !hasSPF && !hasDKIM {
		return PolicyNone
	}
	switch {
	case domainAgeDays < 30:
		return PolicyNone
	case domainAgeDays < 90:
		return PolicyQuarantine
	default:
		return PolicyReject
	}
}
