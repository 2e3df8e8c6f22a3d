// Package resolverpool queries the fixed six-resolver pool used to
// measure DNS propagation: direct, pinned-IP UDP queries via
// miekg/dns, fanned out in parallel, one goroutine per server.
package resolverpool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
)

// Server is one pinned resolver in the pool.
type Server struct {
	IP       string
	Provider model.ServerProvider
}

// DefaultPool is the fixed six-resolver pool from spec.md §4.9: two
// each from Google, Cloudflare, and OpenDNS. Operators may override it
// via config (see internal/config); the package-level default is never
// mutated at runtime.
var DefaultPool = []Server{
	{IP: "8.8.8.8", Provider: model.ServerGoogle},
	{IP: "8.8.4.4", Provider: model.ServerGoogle},
	{IP: "1.1.1.1", Provider: model.ServerCloudflare},
	{IP: "1.0.0.1", Provider: model.ServerCloudflare},
	{IP: "208.67.222.222", Provider: model.ServerOpenDNS},
	{IP: "208.67.220.220", Provider: model.ServerOpenDNS},
}

const probeTimeout = 5 * time.Second

// RecordType is the query type this package supports probing for.
type RecordType string

const (
	TypeTXT   RecordType = "TXT"
	TypeMX    RecordType = "MX"
	TypeCNAME RecordType = "CNAME"
)

// Service queries a resolver pool.
type Service struct {
	pool   []Server
	client *dns.Client
}

// New constructs a Service against pool (pass resolverpool.DefaultPool
// for the standard six-server set).
func New(pool []Server) *Service {
	return &Service{
		pool:   pool,
		client: &dns.Client{Timeout: probeTimeout},
	}
}

// QueryAcrossServers fans out a single query to every server in the
// pool in parallel and aggregates the results. A probe failure on one
// server never aborts the others — errgroup collects results without
// propagating the first error.
func (s *Service) QueryAcrossServers(ctx context.Context, name string, qtype RecordType, expected string) model.MultiServerQueryResult {
	results := make([]model.PerServerQueryResult, len(s.pool))

	g, gctx := errgroup.WithContext(ctx)
	for i, server := range s.pool {
		i, server := i, server
		g.Go(func() error {
			results[i] = s.probe(gctx, server, name, qtype, expected)
			return nil
		})
	}
	_ = g.Wait()

	agg := model.MultiServerQueryResult{Results: results, TotalServers: len(results), QueriedAt: time.Now()}
	for _, r := range results {
		if r.MatchesExpected {
			agg.PropagatedServers++
		}
	}
	if agg.TotalServers > 0 {
		agg.PropagationPercentage = int(roundFloat(float64(agg.PropagatedServers) / float64(agg.TotalServers) * 100))
	}
	agg.IsPropagated = agg.PropagationPercentage == 100

	return agg
}

func (s *Service) probe(ctx context.Context, server Server, name string, qtype RecordType, expected string) model.PerServerQueryResult {
	start := time.Now()
	result := model.PerServerQueryResult{Server: server.IP, Provider: server.Provider, QueriedAt: start}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dnsType(qtype))

	resp, _, err := s.client.ExchangeContext(ctx, msg, server.IP+":53")
	result.ResponseTime = time.Since(start)

	if err != nil {
		result.Error = normalizeError(err)
		return result
	}
	if resp == nil || resp.Rcode != dns.RcodeSuccess {
		result.Error = fmt.Errorf("no records found")
		return result
	}

	records := extractRecords(resp, qtype)
	result.Records = records
	result.Success = true
	result.MatchesExpected = matchesExpected(records, expected)

	return result
}

func dnsType(qtype RecordType) uint16 {
	switch qtype {
	case TypeTXT:
		return dns.TypeTXT
	case TypeMX:
		return dns.TypeMX
	case TypeCNAME:
		return dns.TypeCNAME
	default:
		return dns.TypeTXT
	}
}

func extractRecords(resp *dns.Msg, qtype RecordType) []string {
	var out []string
	for _, ans := range resp.Answer {
		switch rr := ans.(type) {
		case *dns.TXT:
			if qtype == TypeTXT {
				out = append(out, strings.Join(rr.Txt, ""))
			}
		case *dns.MX:
			if qtype == TypeMX {
				out = append(out, fmt.Sprintf("%d %s", rr.Preference, strings.TrimSuffix(rr.Mx, ".")))
			}
		case *dns.CNAME:
			if qtype == TypeCNAME {
				out = append(out, strings.TrimSuffix(rr.Target, "."))
			}
		}
	}
	return out
}

// matchesExpected is a case-insensitive, whitespace-trimmed exact
// compare against any returned record (spec.md §4.9).
func matchesExpected(records []string, expected string) bool {
	want := strings.ToLower(strings.TrimSpace(expected))
	for _, r := range records {
		if strings.ToLower(strings.TrimSpace(r)) == want {
			return true
		}
	}
	return false
}

// normalizeError collapses miekg/dns and net errors into the small set
// spec.md §4.9 calls for: timeout, server failure, or other.
func normalizeError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return fmt.Errorf("timeout")
	case strings.Contains(msg, "server misbehaving") || strings.Contains(msg, "servfail"):
		return fmt.Errorf("server failure")
	default:
		return fmt.Errorf("other: %w", err)
	}
}

func roundFloat(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}
