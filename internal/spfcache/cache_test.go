package spfcache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	calls int
	txt   map[string][]string
}

func (s *stubResolver) LookupTXT(_ context.Context, domain string) ([]string, error) {
	s.calls++
	return s.txt[domain], nil
}
func (s *stubResolver) LookupIP(_ context.Context, domain string) ([]net.IP, error) { return nil, nil }
func (s *stubResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) { return nil, nil }

func TestCacheHitsAvoidRelookup(t *testing.T) {
	stub := &stubResolver{txt: map[string][]string{"example.com": {"v=spf1 ip4:192.0.2.1 ~all"}}}
	c := New(stub)

	first := c.Resolve(context.Background(), "example.com")
	second := c.Resolve(context.Background(), "example.com")

	assert.Equal(t, first.IPv4, second.IPv4)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 1, c.Stats().Hits)
	assert.Equal(t, 1, c.Stats().Misses)
}

func TestCacheExpiry(t *testing.T) {
	stub := &stubResolver{txt: map[string][]string{"example.com": {"v=spf1 ip4:192.0.2.1 ~all"}}}
	c := New(stub).WithTTL(1 * time.Millisecond)

	c.Resolve(context.Background(), "example.com")
	time.Sleep(5 * time.Millisecond)
	c.Resolve(context.Background(), "example.com")

	assert.Equal(t, 2, stub.calls)
}

func TestInvalidateAndClear(t *testing.T) {
	stub := &stubResolver{txt: map[string][]string{"example.com": {"v=spf1 ip4:192.0.2.1 ~all"}}}
	c := New(stub)

	c.Resolve(context.Background(), "example.com")
	c.Invalidate("example.com")
	assert.Equal(t, 0, c.Stats().Entries)

	c.Resolve(context.Background(), "example.com")
	c.Clear()
	require.Equal(t, 0, c.Stats().Entries)
	assert.Equal(t, 0, c.Stats().Hits)
}

func TestResolvedIncludesFlattening(t *testing.T) {
	stub := &stubResolver{txt: map[string][]string{
		"example.com":       {"v=spf1 include:_spf.provider.com ~all"},
		"_spf.provider.com": {"v=spf1 ip4:198.51.100.1 ip4:198.51.100.2 ~all"},
	}}
	c := New(stub)
	result := c.Resolve(context.Background(), "example.com")

	resolved := ResolvedIncludes(result)
	require.Len(t, resolved, 1)
	assert.Equal(t, "_spf.provider.com", resolved[0].Domain)
	assert.ElementsMatch(t, []string{"198.51.100.1", "198.51.100.2"}, resolved[0].IPv4)
}
