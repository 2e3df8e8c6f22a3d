package spfflatten

import (
	"fmt"
	"strings"

	"github.com/dean-jl/dnsengine/internal/model"
)

const maxSPFChars = 255

// FlattenAndChain flattens domain's SPF record as Flatten does, and if
// the result still exceeds the 512-byte TXT cap, splits it into a
// chain of spf0.<domain>, spf1.<domain>, … includes rather than
// reporting the cap as a limit error. It has no per-include breakdown,
// so the whole-walk IP union in resolved is inlined as one entry:
// literals behind preserved or removed includes are inlined as well.
func FlattenAndChain(domain, original string, resolved model.SPFLookupResult, opts Options) (Result, map[string]string) {
	union := []model.ResolvedInclude{{IPv4: resolved.IPv4, IPv6: resolved.IPv6}}
	res := Flatten(domain, original, resolved, union, opts)
	if res.Valid || len(res.Flattened) <= maxRecordBytes {
		return res, nil
	}

	chained := splitAndChain(res.Flattened, domain)
	// Chaining resolves the hard length stop: the main domain record
	// is now short, so clear the limit error.
	res.Valid = true
	res.Errors = nil
	res.Flattened = chained[domain]
	return res, chained
}

// splitAndChain splits a flattened SPF record into chained TXT records
// keyed by record name, grounded on the teacher's 255-char chunker.
func splitAndChain(spfRecord, domain string) map[string]string {
	if len(spfRecord) <= maxSPFChars {
		return map[string]string{domain: spfRecord}
	}

	body := strings.TrimSuffix(spfRecord, " ~all")
	body = strings.TrimSuffix(body, " -all")

	parts := strings.Fields(body)
	var records []string
	var current strings.Builder
	current.WriteString(parts[0])

	// Reserve room for the longest suffix a chunk can get, so the
	// truncation guard below never cuts a mechanism.
	reserve := len(fmt.Sprintf(" include:spf%d.%s ~all", len(parts), domain))
	for _, part := range parts[1:] {
		if current.Len()+len(part)+1+reserve > maxSPFChars {
			records = append(records, current.String())
			current.Reset()
			current.WriteString(parts[0])
		}
		current.WriteString(" ")
		current.WriteString(part)
	}
	records = append(records, current.String())

	result := make(map[string]string, len(records)+1)
	for i := range records {
		name := fmt.Sprintf("spf%d.%s", i, domain)
		suffix := " ~all"
		if i < len(records)-1 {
			suffix = fmt.Sprintf(" include:spf%d.%s ~all", i+1, domain)
		}
		maxLen := maxSPFChars - len(suffix)
		record := records[i]
		if len(record) > maxLen {
			record = record[:maxLen]
		}
		result[name] = record + suffix
	}
	result[domain] = fmt.Sprintf("v=spf1 include:spf0.%s ~all", domain)
	return result
}
