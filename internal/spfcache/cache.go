// Package spfcache wraps spfresolve with a TTL-bounded cache keyed by
// domain, and flattens each top-level include chain into a single
// ResolvedInclude. Each Cache value holds its own entries; nothing is
// shared between Cache values.
package spfcache

import (
	"context"
	"sync"
	"time"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/spfresolve"
)

const DefaultTTL = 3600 * time.Second

type entry struct {
	result  model.SPFLookupResult
	expires time.Time
}

// Cache wraps a spfresolve.DNSResolver with a TTL cache of whole-domain
// lookup results.
type Cache struct {
	dns spfresolve.DNSResolver
	ttl time.Duration

	mu    sync.Mutex
	store map[string]entry

	hits   int
	misses int
}

// New constructs a Cache with the default 3600s TTL.
func New(dns spfresolve.DNSResolver) *Cache {
	return &Cache{dns: dns, ttl: DefaultTTL, store: make(map[string]entry)}
}

// WithTTL overrides the cache TTL.
func (c *Cache) WithTTL(ttl time.Duration) *Cache {
	c.ttl = ttl
	return c
}

// Resolve returns the cached SPFLookupResult for domain, resolving and
// caching it on a miss or expiry.
func (c *Cache) Resolve(ctx context.Context, domain string) model.SPFLookupResult {
	c.mu.Lock()
	if e, ok := c.store[domain]; ok && time.Now().Before(e.expires) {
		c.hits++
		c.mu.Unlock()
		return e.result
	}
	c.misses++
	c.mu.Unlock()

	result := spfresolve.New(c.dns).Resolve(ctx, domain)

	c.mu.Lock()
	c.store[domain] = entry{result: result, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return result
}

// ResolvedIncludes flattens each top-level include: mechanism of the
// domain's own SPF record into a deduplicated ResolvedInclude (C3).
// result.Chains holds the single root chain node for the domain itself;
// its NestedIncludes are the domain's top-level includes, one
// ResolvedInclude per entry.
func ResolvedIncludes(result model.SPFLookupResult) []model.ResolvedInclude {
	if len(result.Chains) == 0 {
		return nil
	}
	root := result.Chains[0]
	out := make([]model.ResolvedInclude, 0, len(root.NestedIncludes))
	for _, chain := range root.NestedIncludes {
		out = append(out, flattenChain(chain))
	}
	return out
}

func flattenChain(chain *model.SPFIncludeChain) model.ResolvedInclude {
	ipv4set := map[string]bool{}
	ipv6set := map[string]bool{}
	var walkErr error

	var walk func(n *model.SPFIncludeChain)
	walk = func(n *model.SPFIncludeChain) {
		if n == nil {
			return
		}
		if n.Error != nil && walkErr == nil {
			walkErr = n.Error
		}
		for _, ip := range n.IPv4 {
			ipv4set[ip] = true
		}
		for _, ip := range n.IPv6 {
			ipv6set[ip] = true
		}
		for _, nested := range n.NestedIncludes {
			walk(nested)
		}
	}
	walk(chain)

	ri := model.ResolvedInclude{Domain: chain.Domain, NestedLookups: chain.LookupCount, Error: walkErr}
	for ip := range ipv4set {
		ri.IPv4 = append(ri.IPv4, ip)
	}
	for ip := range ipv6set {
		ri.IPv6 = append(ri.IPv6, ip)
	}
	return ri
}

// Invalidate clears the cached entry for a single domain.
func (c *Cache) Invalidate(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, domain)
}

// Clear empties the entire cache. Intended for test setup/teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]entry)
	c.hits = 0
	c.misses = 0
}

// Stats is a snapshot of cache hit/miss counters.
type Stats struct {
	Hits    int
	Misses  int
	Entries int
}

// Stats returns a snapshot of the cache's hit/miss counters and current
// entry count.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.store)}
}
