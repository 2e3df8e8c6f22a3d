// Package config provides configuration management for the DNS
// provisioning and propagation engine.
//
// This package handles loading and validating configuration from YAML
// files, with environment variable overrides for sensitive values like
// the provider API token. The configuration covers the authoritative
// provider connection, the store's database, the resolver pool, and
// the defaults handed to new record generation and polling sessions.
//
// Environment Variables:
//   - DNSENGINE_API_TOKEN: overrides provider_token
//   - DNSENGINE_PROVIDER_DSN: overrides store_dsn
//
// Example configuration:
//
//	provider_token: "pk1_..."
//	store_type: sqlite
//	store_dsn: "dnsengine.db"
//	logging: true
//	dry_run: false
//	dns:
//	  - name: "Cloudflare"
//	    ip: "1.1.1.1"
//	dkim:
//	  selector: google
//	  key_type: rsa
//	dmarc:
//	  policy: quarantine
//	  aggregate_rua: dmarc-reports@example.com
//	session:
//	  check_interval_ms: 30000
//	  max_duration_ms: 172800000
package config

import (
	"fmt"
	"os"

	"github.com/dean-jl/dnsengine/internal/model"
	"gopkg.in/yaml.v2"
)

const Version = "1.0.0"

const (
	EnvAPIToken = "DNSENGINE_API_TOKEN"
	EnvStoreDSN = "DNSENGINE_PROVIDER_DSN"
)

// DNSServer is an operator-supplied resolver override; when any are
// configured they replace the fixed six-server public resolver pool —
// useful for testing against a staging authoritative zone before it is
// publicly delegated.
type DNSServer struct {
	Name string `yaml:"name"`
	IP   string `yaml:"ip"`
}

// DKIMDefaults configures the DKIM material applied when a setup call
// does not override it.
type DKIMDefaults struct {
	Selector string `yaml:"selector,omitempty"`
	KeyType  string `yaml:"key_type,omitempty"`
}

// DMARCDefaults configures the DMARC policy applied when a setup call
// does not override it.
type DMARCDefaults struct {
	Policy       string `yaml:"policy,omitempty"`
	AggregateRUA string `yaml:"aggregate_rua,omitempty"`
	ForensicRUF  string `yaml:"forensic_ruf,omitempty"`
}

// SessionDefaults configures the polling session cadence and horizon.
type SessionDefaults struct {
	CheckIntervalMS int64 `yaml:"check_interval_ms,omitempty"`
	MaxDurationMS   int64 `yaml:"max_duration_ms,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	ProviderToken   string          `yaml:"provider_token" validate:"required"`
	ProviderBaseURL string          `yaml:"provider_base_url,omitempty"`
	StoreType       string          `yaml:"store_type" validate:"required"`
	StoreDSN        string          `yaml:"store_dsn" validate:"required"`
	Logging         bool            `yaml:"logging"`
	DryRun          bool            `yaml:"dry_run"`
	DNSServers      []DNSServer     `yaml:"dns,omitempty"`
	DKIM            DKIMDefaults    `yaml:"dkim,omitempty"`
	DMARC           DMARCDefaults   `yaml:"dmarc,omitempty"`
	Session         SessionDefaults `yaml:"session,omitempty"`
}

// Validate checks the required fields and enumerated values.
func (c *Config) Validate() error {
	if c.ProviderToken == "" {
		return fmt.Errorf("provider_token is required")
	}
	if c.StoreType != "sqlite" && c.StoreType != "postgres" {
		return fmt.Errorf("store_type must be 'sqlite' or 'postgres', got %q", c.StoreType)
	}
	if c.StoreDSN == "" {
		return fmt.Errorf("store_dsn is required")
	}
	if c.DMARC.Policy != "" && c.DMARC.Policy != "none" && c.DMARC.Policy != "quarantine" && c.DMARC.Policy != "reject" {
		return fmt.Errorf("dmarc.policy must be one of none|quarantine|reject, got %q", c.DMARC.Policy)
	}
	return nil
}

// applyDefaults fills in zero-valued fields with the engine defaults
// (spec.md §6).
func (c *Config) applyDefaults() {
	if c.Session.CheckIntervalMS == 0 {
		c.Session.CheckIntervalMS = model.DefaultCheckIntervalMS
	}
	if c.Session.MaxDurationMS == 0 {
		c.Session.MaxDurationMS = model.DefaultMaxDurationMS
	}
	if c.DKIM.Selector == "" {
		c.DKIM.Selector = "google"
	}
	if c.DKIM.KeyType == "" {
		c.DKIM.KeyType = "rsa"
	}
	if c.DMARC.Policy == "" {
		c.DMARC.Policy = "none"
	}
}

// LoadConfig loads and validates a configuration file from the
// specified path.
//
// This function:
//  1. Reads the YAML configuration file.
//  2. Parses the YAML into the Config structure.
//  3. Applies environment variable overrides for the provider token
//     and store DSN.
//  4. Fills in cadence/horizon/DKIM/DMARC defaults.
//  5. Validates the complete configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file %s: %w", path, err)
	}

	if token := os.Getenv(EnvAPIToken); token != "" {
		cfg.ProviderToken = token
	}
	if dsn := os.Getenv(EnvStoreDSN); dsn != "" {
		cfg.StoreDSN = dsn
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
