package model

// MechanismType enumerates the SPF mechanism kinds recognised by the parser.
type MechanismType string

const (
	MechInclude MechanismType = "include"
	MechA       MechanismType = "a"
	MechMX      MechanismType = "mx"
	MechPTR     MechanismType = "ptr"
	MechIP4     MechanismType = "ip4"
	MechIP6     MechanismType = "ip6"
	MechExists  MechanismType = "exists"
	MechAll     MechanismType = "all"
	MechUnknown MechanismType = "unknown"
)

// Qualifier is the SPF result qualifier prefixing a mechanism; '+' is the
// default when a token carries none.
type Qualifier byte

const (
	QualifierPass     Qualifier = '+'
	QualifierFail     Qualifier = '-'
	QualifierSoftFail Qualifier = '~'
	QualifierNeutral  Qualifier = '?'
)

// TriggersLookup reports whether a mechanism of this type counts against
// the RFC 7208 §4.6.4 ten-lookup budget.
func TriggersLookup(t MechanismType) bool {
	switch t {
	case MechInclude, MechA, MechMX, MechExists, MechPTR:
		return true
	default:
		return false
	}
}

// Mechanism is one token of a parsed SPF record.
type Mechanism struct {
	Type      MechanismType
	Qualifier Qualifier
	Value     string // domain, CIDR literal, etc.; empty for bare "all"/"a"/"mx"
	Raw       string // original token, verbatim
}

// ParsedSPFRecord is the derived, never-persisted view of a raw SPF TXT
// value produced by the parser (C1).
type ParsedSPFRecord struct {
	Version    string // always "spf1" for a well-formed record
	Mechanisms []Mechanism

	Includes []Mechanism
	IPv4     []Mechanism
	IPv6     []Mechanism
	All      *Mechanism // the trailing "all" mechanism, if present
}

// SPFIncludeChain is one node of the include forest built by the lookup
// resolver (C2): the domain's own literals plus its nested includes.
type SPFIncludeChain struct {
	Domain         string
	Depth          int
	IPv4           []string
	IPv6           []string
	LookupCount    int // accumulated over the subtree, including this include edge
	NestedIncludes []*SPFIncludeChain
	Circular       bool
	Error          error
}

// ResolvedInclude is the per-top-level-include flattening result: the
// union of every IP literal reachable under that include, deduplicated.
type ResolvedInclude struct {
	Domain        string
	IPv4          []string
	IPv6          []string
	NestedLookups int
	Error         error
}

// SPFLookupResult is the full output of the lookup resolver (C2) for one
// domain's SPF record.
type SPFLookupResult struct {
	Domain        string
	Chains        []*SPFIncludeChain // the walk's single root node for Domain; its NestedIncludes are the top-level includes, in encounter order
	IPv4          []string           // deduplicated union across the whole walk
	IPv6          []string
	TotalLookups  int
	ExceedsLimit  bool
	Warnings      []string
}
