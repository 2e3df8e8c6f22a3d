package dkim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "MIGfMA0GCSqGSIb3DQEBAQUAA4GNADCBiQKBgQC7VJTUt9Us8cKjMzEfYyjiWA4R4/M2bS1GB4t7NXp98C3SC6dVMvDuictGeurT8jNbvJZHtCSuYEvuNMoSfm76oqFvAp8Gy0iz5sxjZmSnXyCdPEovGhLa0VzMaQ8s+CLOyS56YyCFGeJZqgtzJ6GR3eqoYSW9b9UMvkBpZODSctQIDAQAB"

func TestBuild(t *testing.T) {
	rec := Build("example.com", testKey, Options{})

	assert.Equal(t, "google._domainkey.example.com", rec.Name)
	assert.True(t, strings.HasPrefix(rec.Value, "v=DKIM1; k=rsa; p="))
	assert.Empty(t, rec.Errors)
}

func TestBuildStripsWhitespaceFromKey(t *testing.T) {
	spacedKey := testKey[:20] + "\n " + testKey[20:]
	rec := Build("example.com", spacedKey, Options{})
	assert.NotContains(t, rec.Value, "\n")
	assert.NotContains(t, rec.Value, " ", "whitespace inside the key must be stripped")
}

func TestBuildCustomSelector(t *testing.T) {
	rec := Build("example.com", testKey, Options{Selector: "selector1"})
	assert.Equal(t, "selector1._domainkey.example.com", rec.Name)
}

func TestBuildEd25519Accepted(t *testing.T) {
	rec := Build("example.com", "3z4SOJv0BpvMAXQRWx5CXgXNYwzAAhgXDS4U9I2tHOA=", Options{KeyType: "ed25519"})
	assert.Contains(t, rec.Value, "k=ed25519")
	assert.Empty(t, rec.Errors)
}

func TestBuildRejectsInvalidDomain(t *testing.T) {
	rec := Build("not a domain", testKey, Options{})
	require.NotEmpty(t, rec.Errors)
}

func TestBuildRejectsEmptyKey(t *testing.T) {
	rec := Build("example.com", "", Options{})
	require.NotEmpty(t, rec.Errors)
}

func TestBuildSplittingLargeKey(t *testing.T) {
	bigKey := strings.Repeat("A", 400)
	rec := Build("example.com", bigKey, Options{Split: true})

	require.True(t, rec.RequiresSplitting)
	require.NotEmpty(t, rec.Chunks)

	var joined strings.Builder
	for _, c := range rec.Chunks {
		assert.LessOrEqual(t, len(c), maxChunkBytes)
		joined.WriteString(c)
	}
	assert.Equal(t, rec.Value, joined.String())
}

func TestBuildFailsWhenSplittingDisabledAndOversized(t *testing.T) {
	bigKey := strings.Repeat("A", 400)
	rec := Build("example.com", bigKey, Options{Split: false})

	require.True(t, rec.RequiresSplitting)
	require.NotEmpty(t, rec.Errors)
}
