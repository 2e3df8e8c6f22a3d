package spfflatten

import (
	"strings"
	"testing"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenBasic(t *testing.T) {
	resolved := model.SPFLookupResult{TotalLookups: 2}
	resolvedIncludes := []model.ResolvedInclude{
		{Domain: "_spf.provider.com", IPv4: []string{"198.51.100.1", "198.51.100.2"}},
	}
	res := Flatten("example.com", "v=spf1 include:_spf.provider.com ~all", resolved, resolvedIncludes, Options{})

	require.True(t, res.Valid)
	assert.True(t, strings.HasPrefix(res.Flattened, "v=spf1"))
	assert.True(t, strings.HasSuffix(res.Flattened, "~all"))
	assert.Contains(t, res.Flattened, "ip4:198.51.100.1")
	assert.Contains(t, res.Flattened, "ip4:198.51.100.2")
	assert.NotContains(t, res.Flattened, "include:")
}

func TestFlattenPreservesPreservedIncludes(t *testing.T) {
	resolved := model.SPFLookupResult{}
	resolvedIncludes := []model.ResolvedInclude{
		{Domain: "_spf.google.com", IPv4: []string{"198.51.100.1"}},
	}
	res := Flatten("example.com", "v=spf1 include:_spf.google.com ~all", resolved, resolvedIncludes, Options{
		PreserveIncludes: []string{"_spf.google.com"},
	})

	assert.Contains(t, res.Flattened, "include:_spf.google.com")
	// The preserved include's own literals stay behind the include:,
	// not inlined a second time.
	assert.NotContains(t, res.Flattened, "ip4:198.51.100.1")
}

func TestFlattenDropsRemovedIncludes(t *testing.T) {
	resolved := model.SPFLookupResult{}
	resolvedIncludes := []model.ResolvedInclude{
		{Domain: "old.example.com", IPv4: []string{"198.51.100.1"}},
	}
	res := Flatten("example.com", "v=spf1 include:old.example.com ~all", resolved, resolvedIncludes, Options{
		PreserveIncludes: []string{"old.example.com"},
		RemoveIncludes:   []string{"old.example.com"},
	})

	assert.NotContains(t, res.Flattened, "old.example.com")
	assert.NotContains(t, res.Flattened, "198.51.100.1")
}

func TestFlattenInlinesOnlyNonPreservedIncludeLiterals(t *testing.T) {
	resolved := model.SPFLookupResult{}
	resolvedIncludes := []model.ResolvedInclude{
		{Domain: "_spf.google.com", IPv4: []string{"198.51.100.1"}},
		{Domain: "mail.example.net", IPv4: []string{"203.0.113.9"}},
	}
	res := Flatten("example.com", "v=spf1 include:_spf.google.com include:mail.example.net ~all", resolved, resolvedIncludes, Options{
		PreserveIncludes: []string{"_spf.google.com"},
	})

	assert.Contains(t, res.Flattened, "include:_spf.google.com")
	assert.NotContains(t, res.Flattened, "ip4:198.51.100.1")
	assert.Contains(t, res.Flattened, "ip4:203.0.113.9")
	assert.NotContains(t, res.Flattened, "include:mail.example.net")
}

func TestFlattenExceedsCharacterLimit(t *testing.T) {
	resolved := model.SPFLookupResult{}
	resolvedIncludes := []model.ResolvedInclude{{Domain: "big.example.com", IPv4: uniqueIPs(80)}}
	res := Flatten("example.com", "v=spf1 include:big.example.com ~all", resolved, resolvedIncludes, Options{})

	require.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, model.KindLimit, res.Errors[0].Kind)
}

func uniqueIPs(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, "198.51."+itoa(i/256)+"."+itoa(i%256))
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestAnalyzeBenefit(t *testing.T) {
	cases := []struct {
		name     string
		result   model.SPFLookupResult
		estBytes int
		want     Benefit
	}{
		{"must flatten over limit", model.SPFLookupResult{TotalLookups: 11}, 100, BenefitMust},
		{"should flatten approaching", model.SPFLookupResult{TotalLookups: 8}, 100, BenefitShould},
		{"unnecessary few lookups", model.SPFLookupResult{TotalLookups: 2}, 100, BenefitUnnecessary},
		{"do not flatten too many ips", model.SPFLookupResult{TotalLookups: 5, IPv4: make([]string, 60)}, 100, BenefitDoNot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AnalyzeBenefit(tc.result, tc.estBytes))
		})
	}
}
