package spfresolve

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	txt map[string][]string
	ips map[string][]net.IP
	mx  map[string][]*net.MX
}

func (s *stubResolver) LookupTXT(_ context.Context, domain string) ([]string, error) {
	return s.txt[domain], nil
}

func (s *stubResolver) LookupIP(_ context.Context, domain string) ([]net.IP, error) {
	return s.ips[domain], nil
}

func (s *stubResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	return s.mx[domain], nil
}

func TestResolveFlatChain(t *testing.T) {
	stub := &stubResolver{
		txt: map[string][]string{
			"example.com": {"v=spf1 ip4:192.0.2.1 ip6:2001:db8::1 ~all"},
		},
	}
	r := New(stub)
	result := r.Resolve(context.Background(), "example.com")

	assert.Equal(t, []string{"192.0.2.1"}, result.IPv4)
	assert.Equal(t, []string{"2001:db8::1"}, result.IPv6)
	assert.Equal(t, 0, result.TotalLookups)
	assert.False(t, result.ExceedsLimit)
}

func TestResolveNestedInclude(t *testing.T) {
	stub := &stubResolver{
		txt: map[string][]string{
			"example.com": {"v=spf1 include:_spf.provider.com ~all"},
			"_spf.provider.com": {"v=spf1 ip4:198.51.100.1 ~all"},
		},
	}
	r := New(stub)
	result := r.Resolve(context.Background(), "example.com")

	require.Len(t, result.IPv4, 1)
	assert.Equal(t, "198.51.100.1", result.IPv4[0])
	assert.Equal(t, 1, result.TotalLookups)
}

func TestResolveCircularInclude(t *testing.T) {
	stub := &stubResolver{
		txt: map[string][]string{
			"a.com": {"v=spf1 include:b.com ~all"},
			"b.com": {"v=spf1 include:a.com ~all"},
		},
	}
	r := New(stub)
	result := r.Resolve(context.Background(), "a.com")

	require.Len(t, result.Chains, 1)
	require.Len(t, result.Chains[0].NestedIncludes, 1)
	nested := result.Chains[0].NestedIncludes[0]
	require.Len(t, nested.NestedIncludes, 1)
	assert.True(t, nested.NestedIncludes[0].Circular)
}

func TestResolveMissingSPFOnIncludeStillCountsOneLookup(t *testing.T) {
	stub := &stubResolver{
		txt: map[string][]string{
			"example.com": {"v=spf1 include:nospf.example.com ~all"},
		},
	}
	r := New(stub)
	result := r.Resolve(context.Background(), "example.com")
	assert.Equal(t, 1, result.TotalLookups)
}

func TestResolveExceedsLookupLimit(t *testing.T) {
	txt := map[string][]string{}
	spf := "v=spf1"
	for i := 0; i < 11; i++ {
		name := string(rune('a' + i))
		spf += " include:" + name + ".example.com"
		txt[name+".example.com"] = []string{"v=spf1 ip4:192.0.2." + string(rune('1'+i)) + " ~all"}
	}
	spf += " ~all"
	txt["example.com"] = []string{spf}

	stub := &stubResolver{txt: txt}
	r := New(stub)
	result := r.Resolve(context.Background(), "example.com")
	assert.True(t, result.ExceedsLimit)
	assert.True(t, result.TotalLookups > 10)
}
