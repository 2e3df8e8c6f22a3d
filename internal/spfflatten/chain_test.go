package spfflatten

import (
	"testing"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenAndChainShortRecordNoChaining(t *testing.T) {
	resolved := model.SPFLookupResult{IPv4: []string{"198.51.100.1"}}
	res, chained := FlattenAndChain("example.com", "v=spf1 ~all", resolved, Options{})

	require.True(t, res.Valid)
	assert.Nil(t, chained)
}

func TestFlattenAndChainSplitsOversizedRecord(t *testing.T) {
	resolved := model.SPFLookupResult{IPv4: uniqueIPs(80)}
	res, chained := FlattenAndChain("example.com", "v=spf1 ~all", resolved, Options{})

	require.True(t, res.Valid)
	require.NotNil(t, chained)
	assert.Contains(t, chained["example.com"], "include:spf0.example.com")
	for name, record := range chained {
		assert.LessOrEqual(t, len(record), maxSPFChars, "record %s exceeds 255 chars", name)
	}
}
