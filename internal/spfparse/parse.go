// Package spfparse tokenizes a raw SPF TXT value into a ParsedSPFRecord
// and reports syntax issues against RFC 7208 without touching the
// network.
package spfparse

import (
	"strings"

	"github.com/dean-jl/dnsengine/internal/model"
)

const versionPrefix = "v=spf1"

// Parse decomposes a raw TXT value into a ParsedSPFRecord. It fails with
// model.ErrInvalidSPFSyntax only when the record does not begin with
// "v=spf1" (case-insensitive, leading whitespace tolerated); every other
// defect is reported by ValidateSyntax instead of here.
func Parse(raw string) (model.ParsedSPFRecord, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(trimmed), versionPrefix) {
		return model.ParsedSPFRecord{}, model.ErrInvalidSPFSyntax
	}

	fields := strings.Fields(trimmed)
	rec := model.ParsedSPFRecord{Version: "spf1"}

	for _, tok := range fields[1:] {
		m := parseToken(tok)
		rec.Mechanisms = append(rec.Mechanisms, m)
		switch m.Type {
		case model.MechInclude:
			rec.Includes = append(rec.Includes, m)
		case model.MechIP4:
			rec.IPv4 = append(rec.IPv4, m)
		case model.MechIP6:
			rec.IPv6 = append(rec.IPv6, m)
		case model.MechAll:
			all := m
			rec.All = &all
		}
	}

	return rec, nil
}

// parseToken decomposes a single whitespace-separated token as
// [qualifier?][type](:value)?.
func parseToken(tok string) model.Mechanism {
	m := model.Mechanism{Raw: tok, Qualifier: model.QualifierPass}

	body := tok
	switch body[0] {
	case '+', '-', '~', '?':
		m.Qualifier = model.Qualifier(body[0])
		body = body[1:]
	}

	name, value, hasValue := strings.Cut(body, ":")
	if !hasValue {
		// "all", "redirect=", "exp=", or a bare "a"/"mx" use "=" for
		// redirect/exp instead of ":" — handle that split too.
		name, value, hasValue = strings.Cut(body, "=")
	}

	switch strings.ToLower(name) {
	case "include":
		m.Type = model.MechInclude
	case "a":
		m.Type = model.MechA
	case "mx":
		m.Type = model.MechMX
	case "ptr":
		m.Type = model.MechPTR
	case "ip4":
		m.Type = model.MechIP4
	case "ip6":
		m.Type = model.MechIP6
	case "exists":
		m.Type = model.MechExists
	case "all":
		m.Type = model.MechAll
	default:
		m.Type = model.MechUnknown
	}

	if hasValue {
		m.Value = value
	}
	return m
}

// CountDNSLookups returns the number of surface-level lookup-triggering
// mechanisms in a parsed record (include/a/mx/ptr/exists).
func CountDNSLookups(rec model.ParsedSPFRecord) int {
	n := 0
	for _, m := range rec.Mechanisms {
		if model.TriggersLookup(m.Type) {
			n++
		}
	}
	return n
}
