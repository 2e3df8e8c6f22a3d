package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
provider_token: "pk1_..."
store_type: sqlite
store_dsn: "dnsengine.db"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "pk1_...", cfg.ProviderToken)
	assert.Equal(t, int64(30_000), cfg.Session.CheckIntervalMS)
	assert.Equal(t, int64(172_800_000), cfg.Session.MaxDurationMS)
	assert.Equal(t, "google", cfg.DKIM.Selector)
	assert.Equal(t, "none", cfg.DMARC.Policy)
}

func TestLoadConfigEnvOverridesToken(t *testing.T) {
	t.Setenv(EnvAPIToken, "env-token")
	t.Setenv(EnvStoreDSN, "env-dsn")

	path := writeConfig(t, `
provider_token: "file-token"
store_type: sqlite
store_dsn: "file-dsn"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.ProviderToken)
	assert.Equal(t, "env-dsn", cfg.StoreDSN)
}

func TestLoadConfigRejectsMissingStoreType(t *testing.T) {
	path := writeConfig(t, `
provider_token: "pk1_..."
store_dsn: "dnsengine.db"
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvalidDMARCPolicy(t *testing.T) {
	path := writeConfig(t, `
provider_token: "pk1_..."
store_type: sqlite
store_dsn: "dnsengine.db"
dmarc:
  policy: bogus
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigParsesResolverOverrides(t *testing.T) {
	path := writeConfig(t, `
provider_token: "pk1_..."
store_type: sqlite
store_dsn: "dnsengine.db"
dns:
  - name: "Cloudflare"
    ip: "1.1.1.1"
  - name: "Google"
    ip: "8.8.8.8"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.DNSServers, 2)
	assert.Equal(t, "1.1.1.1", cfg.DNSServers[0].IP)
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, `
provider_token: "pk1_..."
store_type: [unclosed
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidateRequiresProviderToken(t *testing.T) {
	cfg := &Config{StoreType: "sqlite", StoreDSN: "x"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresStoreDSN(t *testing.T) {
	cfg := &Config{ProviderToken: "tok", StoreType: "sqlite"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownStoreType(t *testing.T) {
	cfg := &Config{ProviderToken: "tok", StoreType: "mysql", StoreDSN: "x"}
	assert.Error(t, cfg.Validate())
}
