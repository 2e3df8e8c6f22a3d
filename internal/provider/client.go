// Package provider is the authoritative-DNS-provider façade: a generic
// JSON-over-HTTP client generalized from the Porkbun-specific API this
// codebase used to talk to. Any provider exposing list/create/delete
// over HTTP can be wired in by supplying a Client with the right
// baseURL and request/response shapes.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.dns-provider.example/v1"

// Record is one record as the authoritative provider represents it.
type Record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	TTL      int    `json:"ttl"`
	Priority int    `json:"priority,omitempty"`
}

// Client talks to the authoritative DNS provider's HTTP API.
type Client struct {
	apiToken string
	http     *http.Client
	baseURL  string
	debug    bool
	limiter  *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider's API base URL (useful for a
// staging/sandbox provider or a test server).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithDebug enables verbose request/response logging to stdout,
// mirroring the teacher's --debug flag.
func WithDebug(debug bool) Option {
	return func(c *Client) { c.debug = debug }
}

// WithRateLimit caps outbound calls to the provider, protecting
// against the provider's own rate limit during a batch run.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient constructs a provider Client authenticated with apiToken.
func NewClient(apiToken string, opts ...Option) *Client {
	c := &Client{
		apiToken: apiToken,
		http:     &http.Client{Timeout: 30 * time.Second},
		baseURL:  defaultBaseURL,
		limiter:  rate.NewLimiter(rate.Limit(2.0), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping verifies the configured API token before a batch run starts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/ping", nil)
	return err
}

// List returns every record the provider holds for zoneID.
func (c *Client) List(ctx context.Context, zoneID string) ([]Record, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/zones/%s/records", zoneID), nil)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records response: %w, body: %s", err, redactSensitive(string(body)))
	}
	return records, nil
}

// Create provisions a new record and returns the provider's assigned ID.
func (c *Client) Create(ctx context.Context, zoneID string, rec Record) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/zones/%s/records", zoneID), payload)
	if err != nil {
		return "", err
	}
	var out Record
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to unmarshal create response: %w, body: %s", err, redactSensitive(string(body)))
	}
	return out.ID, nil
}

// Delete removes a single record by provider ID.
func (c *Client) Delete(ctx context.Context, zoneID, recordID string) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/zones/%s/records/%s", zoneID, recordID), nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	if c.debug {
		fmt.Printf("[DEBUG] %s %s\n", method, path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if err := checkHTTPStatus(resp, respBody); err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, redactSensitive(string(respBody)))
	}

	if c.debug {
		fmt.Printf("[DEBUG] response: %s\n", redactSensitive(string(respBody)))
	}

	return respBody, nil
}

// checkHTTPStatus checks for HTTP rate limiting status codes and
// returns appropriate errors (grounded on the teacher's porkbun
// client).
func checkHTTPStatus(resp *http.Response, respBody []byte) error {
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, resp.Status, redactSensitive(string(respBody)))
	}
	return nil
}

func redactSensitive(input string) string {
	input = strings.ReplaceAll(input, "apikey", "[REDACTED]")
	input = strings.ReplaceAll(input, "apiToken", "[REDACTED]")
	input = strings.ReplaceAll(input, "Bearer", "[REDACTED]")
	return input
}
