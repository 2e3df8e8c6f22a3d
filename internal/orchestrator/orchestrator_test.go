package orchestrator

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dean-jl/dnsengine/internal/provider"
	"github.com/dean-jl/dnsengine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDNS answers every SPF/A/MX lookup with empty results, so Setup's
// generate phase resolves the platform-default SPF record down to a
// bare scaffold without needing live DNS.
type stubDNS struct{}

func (stubDNS) LookupTXT(ctx context.Context, domain string) ([]string, error) { return nil, nil }
func (stubDNS) LookupIP(ctx context.Context, domain string) ([]net.IP, error)  { return nil, nil }
func (stubDNS) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return nil, nil
}

func newTestStore(t *testing.T) store.Storage {
	t.Helper()
	s, err := store.NewStorage("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestProviderServer(t *testing.T, existing []provider.Record) *httptest.Server {
	t.Helper()
	idSeq := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(existing)
		case r.Method == http.MethodPost:
			idSeq++
			_ = json.NewEncoder(w).Encode(provider.Record{ID: assignID(idSeq)})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func assignID(n int) string {
	return "provider-rec-" + string(rune('0'+n))
}

func baseConfig() SetupConfig {
	return SetupConfig{
		DomainID:       "dom1",
		DomainFQDN:     "example.com",
		ZoneID:         "zone1",
		ProviderToken:  "token",
		Platform:       PlatformGoogleWorkspace,
		DMARCPolicy:    "none",
		DKIM:           &DKIMMaterial{Selector: "google", PublicKey: "MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEA", KeyType: "rsa"},
		SkipDuplicates: true,
	}
}

func newTestOrchestrator(t *testing.T, srv *httptest.Server) (*Orchestrator, store.Storage) {
	t.Helper()
	st := newTestStore(t)
	factory := func(token string) *provider.Client {
		return provider.NewClient(token, provider.WithBaseURL(srv.URL), provider.WithRateLimit(1000, 10))
	}
	return New(stubDNS{}, factory, st), st
}

func TestSetupGeneratesAndProvisionsRecords(t *testing.T) {
	srv := newTestProviderServer(t, nil)
	o, st := newTestOrchestrator(t, srv)

	res, err := o.Setup(context.Background(), baseConfig())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Greater(t, res.SucceededCount, 0)
	assert.Zero(t, res.FailedCount)

	stored, err := st.GetRecordsByDomain("dom1")
	require.NoError(t, err)
	assert.Equal(t, res.SucceededCount, len(stored))

	var sawSPF bool
	for _, r := range stored {
		if string(r.Purpose) == "spf" {
			sawSPF = true
		}
		assert.NotEmpty(t, r.Metadata["provider_record_id"])
	}
	assert.True(t, sawSPF)
}

func TestSetupSkipsDuplicateRecords(t *testing.T) {
	existing := []provider.Record{
		{ID: "existing-mx", Name: "@", Type: "MX", Content: "smtp.google.com", Priority: 1},
	}
	srv := newTestProviderServer(t, existing)
	o, _ := newTestOrchestrator(t, srv)

	res, err := o.Setup(context.Background(), baseConfig())
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Greater(t, res.SkippedCount, 0)
}

func TestSetupMissingDKIMDegradesToWarning(t *testing.T) {
	srv := newTestProviderServer(t, nil)
	o, _ := newTestOrchestrator(t, srv)

	cfg := baseConfig()
	cfg.DKIM = nil

	res, err := o.Setup(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, res.Success)
	var sawDKIMWarning bool
	for _, w := range res.Warnings {
		if w.Field == "dkim" {
			sawDKIMWarning = true
		}
	}
	assert.True(t, sawDKIMWarning)
}

func TestSetupDryRunDoesNotCallProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider should not be called during a dry run")
	}))
	defer srv.Close()

	o, _ := newTestOrchestrator(t, srv)
	cfg := baseConfig()
	cfg.DryRun = true

	res, err := o.Setup(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.Records)
}

func TestVerifyConfigurationReportsMissingPurposes(t *testing.T) {
	srv := newTestProviderServer(t, nil)
	o, _ := newTestOrchestrator(t, srv)

	res, err := o.VerifyConfiguration(context.Background(), "dom-empty")
	require.NoError(t, err)
	assert.False(t, res.FullyConfigured)
	assert.Len(t, res.Missing, 4)
}

func TestVerifyConfigurationAfterSetup(t *testing.T) {
	srv := newTestProviderServer(t, nil)
	o, _ := newTestOrchestrator(t, srv)

	_, err := o.Setup(context.Background(), baseConfig())
	require.NoError(t, err)

	res, err := o.VerifyConfiguration(context.Background(), "dom1")
	require.NoError(t, err)
	assert.True(t, res.FullyConfigured)
}
