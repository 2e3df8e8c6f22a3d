package orchestrator

import (
	"context"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/provider"
	"github.com/dean-jl/dnsengine/internal/spfresolve"
	"github.com/dean-jl/dnsengine/internal/store"
)

// ProviderFactory builds an authoritative-provider client for the
// token supplied in a given SetupConfig. Setup calls it once per run
// rather than holding a single long-lived client, since each domain
// can belong to a different provider account.
type ProviderFactory func(apiToken string) *provider.Client

// Orchestrator is the record orchestrator (C11): it wires SPF/DKIM/
// DMARC/MX/tracking generation to the authoritative provider and the
// store.
type Orchestrator struct {
	dns       spfresolve.DNSResolver
	newClient ProviderFactory
	store     store.Storage
}

// New constructs an Orchestrator. dns resolves SPF include chains,
// newClient builds a provider client per run, store persists the
// resulting records.
func New(dns spfresolve.DNSResolver, newClient ProviderFactory, st store.Storage) *Orchestrator {
	return &Orchestrator{dns: dns, newClient: newClient, store: st}
}

// RecordOutcome describes what happened to one generated record during
// provisioning.
type RecordOutcome string

const (
	OutcomeCreated RecordOutcome = "created"
	OutcomeSkipped RecordOutcome = "skipped" // duplicate of an existing active record
	OutcomeFailed  RecordOutcome = "failed"
)

// RecordResult is the per-record outcome of a Setup call.
type RecordResult struct {
	Record  model.DNSRecord
	Outcome RecordOutcome
	Error   string
}

// Result is the aggregate outcome of Setup, per spec.md §4.11 phase 3.
type Result struct {
	DomainID string
	Records  []RecordResult
	Warnings []model.Issue
	Errors   []model.Issue

	SucceededCount int
	FailedCount    int
	SkippedCount   int

	// Success is true when generation produced no hard errors and
	// every record that reached provisioning succeeded or was
	// deliberately skipped as a duplicate.
	Success bool
}

// VerifyResult reports, for a domain already set up, which purposes
// are missing an active record.
type VerifyResult struct {
	DomainID        string
	Configured      []model.Purpose
	Missing         []model.Purpose
	FullyConfigured bool
}

// requiredPurposes is the set of purposes a complete email-authentication
// setup covers; tracking is optional and excluded from completeness
// checks.
var requiredPurposes = []model.Purpose{model.PurposeSPF, model.PurposeDKIM, model.PurposeDMARC, model.PurposeMX}

// VerifyConfiguration reports which of the required record purposes
// have at least one active record for domainID (spec.md §4.11
// "verifyDNSConfiguration").
func (o *Orchestrator) VerifyConfiguration(ctx context.Context, domainID string) (VerifyResult, error) {
	records, err := o.store.GetActiveRecordsByDomain(domainID)
	if err != nil {
		return VerifyResult{}, err
	}

	present := make(map[model.Purpose]bool)
	for _, r := range records {
		present[r.Purpose] = true
	}

	res := VerifyResult{DomainID: domainID}
	for _, p := range requiredPurposes {
		if present[p] {
			res.Configured = append(res.Configured, p)
		} else {
			res.Missing = append(res.Missing, p)
		}
	}
	res.FullyConfigured = len(res.Missing) == 0
	return res, nil
}
