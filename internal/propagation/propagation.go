// Package propagation is the thin semantic layer over resolverpool: it
// knows how to build the right FQDN/query-type for each record
// purpose, and how to turn resolver-pool results into a per-record
// propagation status and global coverage figure.
package propagation

import (
	"context"
	"fmt"
	"time"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/resolverpool"
)

// ResolverPool is the capability this package depends on; satisfied by
// *resolverpool.Service in production, stubbed in tests so the checker
// is exercised without a live resolver.
type ResolverPool interface {
	QueryAcrossServers(ctx context.Context, name string, qtype resolverpool.RecordType, expected string) model.MultiServerQueryResult
}

// Checker is the propagation checker (C10).
type Checker struct {
	pool ResolverPool
}

// New constructs a Checker over the given resolver pool service.
func New(pool ResolverPool) *Checker {
	return &Checker{pool: pool}
}

// queryFor builds the FQDN and query type for a record's purpose, per
// spec.md §4.10. domain is the apex FQDN the record belongs to (the
// record itself only carries the opaque DomainID).
func queryFor(domain string, r model.DNSRecord) (name string, qtype resolverpool.RecordType) {
	switch r.Purpose {
	case model.PurposeSPF:
		return domain, resolverpool.TypeTXT
	case model.PurposeDKIM:
		return fmt.Sprintf("%s._domainkey.%s", selectorOf(r), domain), resolverpool.TypeTXT
	case model.PurposeDMARC:
		return fmt.Sprintf("_dmarc.%s", domain), resolverpool.TypeTXT
	case model.PurposeMX:
		return domain, resolverpool.TypeMX
	case model.PurposeTracking:
		return fmt.Sprintf("%s.%s", r.Name, domain), resolverpool.TypeCNAME
	default:
		return domain, resolverpool.TypeTXT
	}
}

func selectorOf(r model.DNSRecord) string {
	if sel, ok := r.Metadata["selector"]; ok && sel != "" {
		return sel
	}
	return "google"
}

// Check queries the resolver pool for a single record and buckets the
// per-server responses into correct/missing/wrong. domain is the apex
// FQDN the record belongs to.
func (c *Checker) Check(ctx context.Context, domain string, r model.DNSRecord) model.RecordPropagationStatus {
	name, qtype := queryFor(domain, r)
	multi := c.pool.QueryAcrossServers(ctx, name, qtype, r.Value)

	status := model.RecordPropagationStatus{
		RecordID:     r.ID,
		TotalServers: multi.TotalServers,
		CheckedAt:    time.Now(),
	}

	for _, res := range multi.Results {
		switch {
		case res.MatchesExpected:
			status.Correct = append(status.Correct, res.Server)
		case res.Success && len(res.Records) > 0:
			status.Wrong = append(status.Wrong, res.Server)
		default:
			status.Missing = append(status.Missing, res.Server)
		}
	}

	status.PropagatedServers = len(status.Correct)
	if status.TotalServers > 0 {
		status.PropagationPercentage = int(round(float64(status.PropagatedServers) / float64(status.TotalServers) * 100))
	}

	return status
}

// CalculateGlobalCoverage aggregates a set of per-record statuses into
// the mean percentage plus counts at full/partial/none propagation.
func CalculateGlobalCoverage(statuses []model.RecordPropagationStatus) model.GlobalCoverage {
	if len(statuses) == 0 {
		return model.GlobalCoverage{}
	}

	var sum int
	var cov model.GlobalCoverage
	for _, s := range statuses {
		sum += s.PropagationPercentage
		switch {
		case s.PropagationPercentage == 100:
			cov.FullyPropagated++
		case s.PropagationPercentage == 0:
			cov.NotPropagated++
		default:
			cov.Partial++
		}
	}
	cov.MeanPercentage = int(round(float64(sum) / float64(len(statuses))))
	return cov
}

// DeterminePropagationStatusEnum maps a propagation percentage to the
// record-level lifecycle enum (spec.md §4.10).
func DeterminePropagationStatusEnum(percentage int) model.PropagationStatus {
	switch {
	case percentage == 100:
		return model.PropagationPropagated
	case percentage >= 40:
		return model.PropagationPropagating
	default:
		return model.PropagationPending
	}
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}
