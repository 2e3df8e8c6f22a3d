package dmarc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBasicPolicy(t *testing.T) {
	record, issues := Build(Config{Policy: PolicyQuarantine})
	require.Empty(t, issues)
	assert.Equal(t, "v=DMARC1; p=quarantine", record)
}

func TestBuildOmitsDefaultPercent(t *testing.T) {
	record, _ := Build(Config{Policy: PolicyReject, Percent: 100})
	assert.NotContains(t, record, "pct=")
}

func TestBuildIncludesNonDefaultPercent(t *testing.T) {
	record, _ := Build(Config{Policy: PolicyReject, Percent: 50})
	assert.Contains(t, record, "pct=50")
}

func TestBuildStrictAlignmentOnly(t *testing.T) {
	record, _ := Build(Config{Policy: PolicyReject, SPFAlignment: AlignRelaxed, DKIMAlignment: AlignStrict})
	assert.NotContains(t, record, "aspf=")
	assert.Contains(t, record, "adkim=s")
}

func TestBuildInvalidPercentage(t *testing.T) {
	_, issues := Build(Config{Policy: PolicyReject, Percent: 150})
	require.NotEmpty(t, issues)
}

func TestParseRoundTrip(t *testing.T) {
	original := Config{Policy: PolicyQuarantine, SubdomainPolicy: PolicyReject, Percent: 50, ReportAggregate: "dmarc@example.com"}
	record, issues := Build(original)
	require.Empty(t, issues)

	parsed, err := Parse(record)
	require.NoError(t, err)
	assert.Equal(t, original.Policy, parsed.Policy)
	assert.Equal(t, original.SubdomainPolicy, parsed.SubdomainPolicy)
	assert.Equal(t, original.Percent, parsed.Percent)
	assert.Equal(t, original.ReportAggregate, parsed.ReportAggregate)
}

func TestParseRejectsMissingVersion(t *testing.T) {
	_, err := Parse("p=reject")
	require.Error(t, err)
}

func TestParseRejectsMissingPolicy(t *testing.T) {
	_, err := Parse("v=DMARC1; pct=50")
	require.Error(t, err)
}

func TestValidatePolicyProgression(t *testing.T) {
	cases := []struct {
		name          string
		current, next Policy
		wantValid     bool
		wantSafe      bool
	}{
		{"hold at none", PolicyNone, PolicyNone, true, true},
		{"none to quarantine", PolicyNone, PolicyQuarantine, true, true},
		{"none to reject is valid but unsafe", PolicyNone, PolicyReject, true, false},
		{"quarantine to reject", PolicyQuarantine, PolicyReject, true, true},
		{"regression reject to none invalid", PolicyReject, PolicyNone, false, false},
		{"regression quarantine to none invalid", PolicyQuarantine, PolicyNone, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidatePolicyProgression(tc.current, tc.next)
			assert.Equal(t, tc.wantValid, got.IsValid)
			assert.Equal(t, tc.wantSafe, got.IsSafe)
		})
	}
}

func TestRecommend(t *testing.T) {
	assert.Equal(t, PolicyNone, Recommend(10, false, false))
	assert.Equal(t, PolicyNone, Recommend(10, true, true))
	assert.Equal(t, PolicyQuarantine, Recommend(45, true, true))
	assert.Equal(t, PolicyReject, Recommend(120, true, true))
}
