// Package spfresolve walks the include/a/mx graph of an SPF record
// against a live DNS resolver capability, producing the include forest
// and deduplicated IP literal set the flattener consumes.
package spfresolve

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/spfparse"
)

const defaultMaxDepth = 10

// DNSResolver is the capability this package depends on; production
// callers inject the authoritative system resolver or a custom-server
// client, tests inject a stub.
type DNSResolver interface {
	LookupTXT(ctx context.Context, domain string) ([]string, error)
	LookupIP(ctx context.Context, domain string) ([]net.IP, error)
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// Resolver walks SPF include chains for a single call. It is not safe
// for concurrent reuse across calls — construct a fresh one per
// Resolve invocation (the teacher's flattener does the same with its
// per-call dnsCache).
type Resolver struct {
	dns      DNSResolver
	maxDepth int

	txtCache map[string][]string // per-call TXT cache, never shared across calls
	visited  map[string]bool     // persistent for the whole walk, never cleared mid-walk
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth overrides the default recursion depth of 10.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) { r.maxDepth = n }
}

// New constructs a Resolver bound to a DNS capability.
func New(dns DNSResolver, opts ...Option) *Resolver {
	r := &Resolver{
		dns:      dns,
		maxDepth: defaultMaxDepth,
		txtCache: make(map[string][]string),
		visited:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks the SPF graph rooted at domain and returns the full
// include forest plus the deduplicated union of every IPv4/IPv6 literal
// reachable from it.
func (r *Resolver) Resolve(ctx context.Context, domain string) model.SPFLookupResult {
	chain := r.walk(ctx, domain, 0)

	result := model.SPFLookupResult{
		Domain: domain,
		Chains: []*model.SPFIncludeChain{chain},
	}

	ipv4set := map[string]bool{}
	ipv6set := map[string]bool{}
	collectLiterals(chain, ipv4set, ipv6set)
	result.IPv4 = sortedKeys(ipv4set)
	result.IPv6 = sortedKeys(ipv6set)
	result.TotalLookups = chain.LookupCount
	result.ExceedsLimit = result.TotalLookups > 10
	if result.TotalLookups >= 8 && result.TotalLookups <= 10 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d dns lookups, approaching the 10-lookup limit", result.TotalLookups))
	}

	return result
}

// walk performs the depth-first traversal described in spec.md §4.2: a
// single persistent visited set for cycle detection, one lookup charged
// per include edge and per a/mx/exists/ptr mechanism anywhere in the
// tree, a missing SPF record on an include still counts as one lookup.
func (r *Resolver) walk(ctx context.Context, domain string, depth int) *model.SPFIncludeChain {
	node := &model.SPFIncludeChain{Domain: domain, Depth: depth}

	if r.visited[domain] {
		node.Circular = true
		return node
	}
	if depth > r.maxDepth {
		node.Error = fmt.Errorf("spf include depth exceeds max depth %d at %s", r.maxDepth, domain)
		return node
	}
	r.visited[domain] = true

	txt, err := r.lookupTXT(ctx, domain)
	if err != nil {
		node.Error = err
		return node
	}

	raw, found := selectSPFRecord(txt)
	if !found {
		// A missing SPF record on a referenced include is still
		// charged exactly once, by the parent's include-edge
		// lookups++ — this node contributes nothing further.
		return node
	}

	rec, err := spfparse.Parse(raw)
	if err != nil {
		node.Error = err
		return node
	}

	lookups := 0
	for _, m := range rec.Mechanisms {
		switch m.Type {
		case model.MechInclude:
			lookups++
			nested := r.walk(ctx, m.Value, depth+1)
			node.NestedIncludes = append(node.NestedIncludes, nested)
			lookups += nested.LookupCount
		case model.MechA:
			lookups++
			target := m.Value
			if target == "" {
				target = domain
			}
			ips, err := r.dns.LookupIP(ctx, target)
			if err != nil {
				node.Error = err
				continue
			}
			appendIPs(node, ips)
		case model.MechMX:
			lookups++
			target := m.Value
			if target == "" {
				target = domain
			}
			mxs, err := r.dns.LookupMX(ctx, target)
			if err != nil {
				node.Error = err
				continue
			}
			for _, mx := range mxs {
				ips, err := r.dns.LookupIP(ctx, strings.TrimSuffix(mx.Host, "."))
				if err != nil {
					continue
				}
				appendIPs(node, ips)
			}
		case model.MechExists, model.MechPTR:
			lookups++
		case model.MechIP4:
			node.IPv4 = append(node.IPv4, m.Value)
		case model.MechIP6:
			node.IPv6 = append(node.IPv6, m.Value)
		}
	}

	node.LookupCount = lookups
	return node
}

func (r *Resolver) lookupTXT(ctx context.Context, domain string) ([]string, error) {
	if cached, ok := r.txtCache[domain]; ok {
		return cached, nil
	}
	txt, err := r.dns.LookupTXT(ctx, domain)
	if err != nil {
		return nil, err
	}
	r.txtCache[domain] = txt
	return txt, nil
}

func selectSPFRecord(txt []string) (string, bool) {
	for _, t := range txt {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(t)), "v=spf1") {
			return t, true
		}
	}
	return "", false
}

func appendIPs(node *model.SPFIncludeChain, ips []net.IP) {
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			node.IPv4 = append(node.IPv4, v4.String())
		} else {
			node.IPv6 = append(node.IPv6, ip.String())
		}
	}
}

func collectLiterals(node *model.SPFIncludeChain, ipv4, ipv6 map[string]bool) {
	if node == nil {
		return
	}
	for _, ip := range node.IPv4 {
		ipv4[ip] = true
	}
	for _, ip := range node.IPv6 {
		ipv6[ip] = true
	}
	for _, nested := range node.NestedIncludes {
		collectLiterals(nested, ipv4, ipv6)
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
