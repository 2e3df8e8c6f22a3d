package spfresolve

import (
	"context"
	"net"
	"strings"

	"github.com/miekg/dns"
)

// SystemResolver satisfies DNSResolver using Go's standard resolver.
// It is the default used when an operator has not configured a
// resolver-pool override.
type SystemResolver struct{}

func (SystemResolver) LookupTXT(ctx context.Context, domain string) ([]string, error) {
	return net.DefaultResolver.LookupTXT(ctx, domain)
}

func (SystemResolver) LookupIP(ctx context.Context, domain string) ([]net.IP, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, domain)
	if err != nil {
		return nil, err
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, addr := range addrs {
		ips = append(ips, addr.IP)
	}
	return ips, nil
}

func (SystemResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}

// CustomResolver satisfies DNSResolver by querying a fixed list of DNS
// servers directly via miekg/dns, falling back to the system resolver
// when none of them answer. Operators use this to resolve against a
// staging authoritative server before a zone is publicly delegated.
type CustomResolver struct {
	Servers []string
	client  *dns.Client
	fall    SystemResolver
}

// NewCustomResolver builds a CustomResolver querying servers in order.
// Each entry must include a port (e.g. "1.1.1.1:53").
func NewCustomResolver(servers []string) *CustomResolver {
	return &CustomResolver{Servers: servers, client: &dns.Client{}}
}

func (c *CustomResolver) LookupTXT(ctx context.Context, domain string) ([]string, error) {
	var results []string
	for _, server := range c.Servers {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(domain), dns.TypeTXT)
		resp, _, err := c.client.ExchangeContext(ctx, m, server)
		if err != nil || resp == nil || resp.Rcode != dns.RcodeSuccess {
			continue
		}
		for _, ans := range resp.Answer {
			if txt, ok := ans.(*dns.TXT); ok {
				results = append(results, strings.Join(txt.Txt, ""))
			}
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return c.fall.LookupTXT(ctx, domain)
}

func (c *CustomResolver) LookupIP(ctx context.Context, domain string) ([]net.IP, error) {
	var results []net.IP
	for _, server := range c.Servers {
		for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
			m := new(dns.Msg)
			m.SetQuestion(dns.Fqdn(domain), qtype)
			resp, _, err := c.client.ExchangeContext(ctx, m, server)
			if err != nil || resp == nil || resp.Rcode != dns.RcodeSuccess {
				continue
			}
			for _, ans := range resp.Answer {
				switch rr := ans.(type) {
				case *dns.A:
					results = append(results, rr.A)
				case *dns.AAAA:
					results = append(results, rr.AAAA)
				}
			}
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return c.fall.LookupIP(ctx, domain)
}

func (c *CustomResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	var results []*net.MX
	for _, server := range c.Servers {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
		resp, _, err := c.client.ExchangeContext(ctx, m, server)
		if err != nil || resp == nil || resp.Rcode != dns.RcodeSuccess {
			continue
		}
		for _, ans := range resp.Answer {
			if mx, ok := ans.(*dns.MX); ok {
				results = append(results, &net.MX{Host: mx.Mx, Pref: mx.Preference})
			}
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return c.fall.LookupMX(ctx, domain)
}
