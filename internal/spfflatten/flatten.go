package spfflatten

import (
	"sort"
	"strings"
	"time"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/spfparse"
)

const (
	maxRecordBytes  = 512
	warnThreshold   = 0.9
	surfaceWarnOver = 3
)

// Options controls a single Flatten call.
type Options struct {
	AdditionalIncludes []string // appended verbatim as include: mechanisms
	PreserveIncludes   []string // kept as include: in the output, qualifier from the original
	RemoveIncludes     []string // dropped entirely, even if also preserved
	IPv6Support        bool
	Aggregate          bool // supplemented: CIDR-aggregate literals before emitting
}

// Result is the flattener's output: the new record plus the metadata
// persisted alongside it (spec.md §4.4 "Persistence").
type Result struct {
	Domain         string
	Original       string
	Flattened      string
	LookupCount    int
	IncludeSummary []string
	Valid          bool
	Errors         []model.Issue
	Warnings       []model.Issue
	FlattenedAt    time.Time
}

// Flatten builds a new SPF record for domain from its original record
// string and the resolved include/IP data gathered by spfresolve +
// spfcache, per spec.md §4.4. resolvedIncludes is the per-top-level-include
// breakdown from spfcache.ResolvedIncludes(resolved) — it is what lets
// Flatten honor invariant 2 (union of resolved includes minus
// preserved/removed) instead of inlining every literal reachable from
// the whole walk.
func Flatten(domain, original string, resolved model.SPFLookupResult, resolvedIncludes []model.ResolvedInclude, opts Options) Result {
	res := Result{Domain: domain, Original: original, LookupCount: resolved.TotalLookups, FlattenedAt: time.Now()}

	parsed, err := spfparse.Parse(original)
	if err != nil {
		res.Errors = append(res.Errors, model.NewValidationIssue("record", "cannot parse original record: %v", err))
		return res
	}

	removeSet := toSet(opts.RemoveIncludes)
	preserveSet := toSet(opts.PreserveIncludes)

	var b strings.Builder
	b.WriteString("v=spf1")

	// Preserved includes first, qualifier from the original.
	seenInclude := map[string]bool{}
	for _, m := range parsed.Includes {
		if removeSet[m.Value] {
			continue
		}
		if preserveSet[m.Value] && !seenInclude[m.Value] {
			writeMechanism(&b, m.Qualifier, "include", m.Value)
			seenInclude[m.Value] = true
			res.IncludeSummary = append(res.IncludeSummary, m.Value)
		}
	}

	// Caller-supplied additional includes next.
	for _, inc := range opts.AdditionalIncludes {
		if seenInclude[inc] {
			continue
		}
		writeMechanism(&b, model.QualifierPass, "include", inc)
		seenInclude[inc] = true
		res.IncludeSummary = append(res.IncludeSummary, inc)
	}

	// Literals belonging directly to the domain's own record (its own
	// ip4:/ip6: mechanisms, and any a:/mx: it declares itself) are
	// always inlined — they were never behind an include: in the first
	// place.
	ipv4set := map[string]bool{}
	ipv6set := map[string]bool{}
	if len(resolved.Chains) > 0 {
		root := resolved.Chains[0]
		for _, ip := range root.IPv4 {
			ipv4set[ip] = true
		}
		for _, ip := range root.IPv6 {
			ipv6set[ip] = true
		}
	}

	// Union of resolved includes, minus those the caller chose to
	// preserve or remove as include: mechanisms — those stay as
	// include: lines above and must not also be inlined here
	// (spec.md §4.4 invariant 2).
	for _, inc := range resolvedIncludes {
		if removeSet[inc.Domain] || preserveSet[inc.Domain] {
			continue
		}
		for _, ip := range inc.IPv4 {
			ipv4set[ip] = true
		}
		for _, ip := range inc.IPv6 {
			ipv6set[ip] = true
		}
	}

	ipv4 := sortedSetKeys(ipv4set)
	ipv6 := sortedSetKeys(ipv6set)
	if opts.Aggregate {
		if !opts.IPv6Support {
			ipv6 = nil
		}
		ipv4, ipv6 = AggregateLiterals(ipv4, ipv6, nil)
		sort.Strings(ipv4)
		sort.Strings(ipv6)
	}
	for _, ip := range ipv4 {
		writeMechanism(&b, model.QualifierPass, "ip4", ip)
	}
	if opts.IPv6Support {
		for _, ip := range ipv6 {
			writeMechanism(&b, model.QualifierPass, "ip6", ip)
		}
	}

	// Remaining non-include, non-ip, non-all mechanisms from the
	// original, in their original order and qualifier.
	for _, m := range parsed.Mechanisms {
		switch m.Type {
		case model.MechInclude, model.MechIP4, model.MechIP6, model.MechAll:
			continue
		}
		writeRaw(&b, m)
	}

	allQualifier := model.QualifierSoftFail
	if parsed.All != nil {
		allQualifier = parsed.All.Qualifier
	}
	writeMechanism(&b, allQualifier, "all", "")

	res.Flattened = b.String()
	res.Valid = true

	if len(res.Flattened) > maxRecordBytes {
		res.Valid = false
		res.Errors = append(res.Errors, model.NewLimitIssue("record", "flattened record is %d bytes, exceeds 512-byte limit", len(res.Flattened)))
	} else if float64(len(res.Flattened)) > warnThreshold*maxRecordBytes {
		res.Warnings = append(res.Warnings, model.NewValidationIssue("record", "flattened record is %d bytes, approaching the 512-byte limit", len(res.Flattened)))
	}

	outParsed, parseErr := spfparse.Parse(res.Flattened)
	if parseErr == nil {
		surfaceLookups := spfparse.CountDNSLookups(outParsed)
		if surfaceLookups > surfaceWarnOver {
			res.Warnings = append(res.Warnings, model.NewValidationIssue("lookups", "flattened record still has %d surface lookups, consider flattening more", surfaceLookups))
		}
		report := spfparse.ValidateSyntax(res.Flattened, outParsed)
		res.Warnings = append(res.Warnings, report.Warnings...)
	}

	return res
}

func writeMechanism(b *strings.Builder, q model.Qualifier, kind, value string) {
	b.WriteByte(' ')
	if q != model.QualifierPass {
		b.WriteByte(byte(q))
	}
	b.WriteString(kind)
	if value != "" {
		b.WriteByte(':')
		b.WriteString(value)
	}
}

func writeRaw(b *strings.Builder, m model.Mechanism) {
	b.WriteByte(' ')
	if m.Qualifier != model.QualifierPass {
		b.WriteByte(byte(m.Qualifier))
	}
	switch m.Type {
	case model.MechA:
		b.WriteString("a")
	case model.MechMX:
		b.WriteString("mx")
	case model.MechPTR:
		b.WriteString("ptr")
	case model.MechExists:
		b.WriteString("exists")
	default:
		b.WriteString(string(m.Type))
	}
	if m.Value != "" {
		b.WriteByte(':')
		b.WriteString(m.Value)
	}
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

func sortedSetKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
