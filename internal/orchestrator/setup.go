package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/provider"
	"github.com/dean-jl/dnsengine/internal/spfflatten"
)

// Setup generates the full email-authentication record set for a
// domain, provisions it against the authoritative provider, and
// persists the outcome (spec.md §4.11 "setupEmailDNS"). It runs all
// three phases to completion even when individual records fail;
// callers inspect Result for what actually happened.
func (o *Orchestrator) Setup(ctx context.Context, cfg SetupConfig) (Result, error) {
	res := Result{DomainID: cfg.DomainID}

	// Phase 1: generate.
	gen := o.generate(ctx, cfg)
	res.Warnings = append(res.Warnings, gen.warnings...)
	res.Errors = append(res.Errors, gen.errors...)

	if len(gen.records) == 0 {
		res.Success = false
		return res, nil
	}

	if cfg.DryRun {
		for _, rec := range gen.records {
			res.Records = append(res.Records, RecordResult{Record: rec, Outcome: OutcomeCreated})
		}
		res.SucceededCount = len(gen.records)
		res.Success = len(res.Errors) == 0
		return res, nil
	}

	// Phase 2: batch provision.
	client := o.newClient(cfg.ProviderToken)
	existing, err := o.existingKeys(ctx, client, cfg)
	if err != nil {
		// A failed listing degrades to a warning: the duplicate check is
		// skipped and provisioning carries on.
		res.Warnings = append(res.Warnings, model.NewResolutionIssue("provision", "failed to fetch existing records, duplicate check skipped: %v", err))
		existing = &existingRecords{keys: make(map[model.RecordKey]bool), spfTXT: make(map[string][]string)}
	}

	for _, rec := range gen.records {
		result := o.provisionOne(ctx, client, cfg, rec, existing)
		res.Records = append(res.Records, result)
		switch result.Outcome {
		case OutcomeCreated:
			res.SucceededCount++
		case OutcomeSkipped:
			res.SkippedCount++
		case OutcomeFailed:
			res.FailedCount++
		}
	}

	// Phase 3: aggregate.
	res.Success = res.FailedCount == 0 && len(res.Errors) == 0
	return res, nil
}

// existingRecords indexes what's already present for a domain: exact
// dedup keys plus, separately, the raw TXT content of any existing SPF
// records by name (spec.md §4.11 phase 2, "dedup by (type, name,
// content)"). The SPF index lets provisionOne recognize a
// differently-formatted but semantically identical flattened record
// as the same record rather than provisioning a redundant duplicate.
type existingRecords struct {
	keys   map[model.RecordKey]bool
	spfTXT map[string][]string // Name -> existing SPF TXT values
}

func (o *Orchestrator) existingKeys(ctx context.Context, client *provider.Client, cfg SetupConfig) (*existingRecords, error) {
	idx := &existingRecords{
		keys:   make(map[model.RecordKey]bool),
		spfTXT: make(map[string][]string),
	}

	providerRecords, err := client.List(ctx, cfg.ZoneID)
	if err != nil {
		return nil, err
	}
	for _, pr := range providerRecords {
		key := model.RecordKey{
			DomainID: cfg.DomainID,
			Type:     model.RecordType(pr.Type),
			Name:     pr.Name,
			Value:    pr.Content,
		}
		idx.keys[key] = true
		if key.Type == model.RecordTypeTXT && strings.HasPrefix(strings.ToLower(strings.TrimSpace(key.Value)), "v=spf1") {
			idx.spfTXT[key.Name] = append(idx.spfTXT[key.Name], key.Value)
		}
	}

	stored, err := o.store.GetActiveRecordsByDomain(cfg.DomainID)
	if err != nil {
		return nil, err
	}
	for _, r := range stored {
		idx.keys[r.Key()] = true
		if r.Purpose == model.PurposeSPF && r.Type == model.RecordTypeTXT {
			idx.spfTXT[r.Name] = append(idx.spfTXT[r.Name], r.Value)
		}
	}

	return idx, nil
}

// hasSemanticDuplicate reports whether rec (an SPF TXT record) covers
// the same set of ip4/ip6 addresses as one already present under the
// same name, even if CIDR aggregation or mechanism ordering made the
// content differ byte-for-byte. Other mechanisms (include, a, mx, all)
// are not compared.
func (idx *existingRecords) hasSemanticDuplicate(rec model.DNSRecord) bool {
	if rec.Purpose != model.PurposeSPF || rec.Type != model.RecordTypeTXT {
		return false
	}
	for _, existing := range idx.spfTXT[rec.Name] {
		if !spfflatten.SPFSemanticallyDifferent(existing, rec.Value) {
			return true
		}
	}
	return false
}

// provisionOne creates a single record on the provider and persists
// it, skipping duplicates per cfg.SkipDuplicates and tolerating a
// store-insert failure after a successful provider create by
// surfacing the provider record id in the result for later
// reconciliation rather than losing it silently.
func (o *Orchestrator) provisionOne(ctx context.Context, client *provider.Client, cfg SetupConfig, rec model.DNSRecord, existing *existingRecords) RecordResult {
	rec.DomainID = cfg.DomainID
	key := rec.Key()

	if existing.keys[key] || existing.hasSemanticDuplicate(rec) {
		if cfg.SkipDuplicates {
			return RecordResult{Record: rec, Outcome: OutcomeSkipped}
		}
		return RecordResult{Record: rec, Outcome: OutcomeFailed, Error: "duplicate record already exists"}
	}

	providerID, err := client.Create(ctx, cfg.ZoneID, provider.Record{
		Name:     rec.Name,
		Type:     string(rec.Type),
		Content:  rec.Value,
		TTL:      rec.TTL,
		Priority: rec.Priority,
	})
	if err != nil {
		return RecordResult{Record: rec, Outcome: OutcomeFailed, Error: fmt.Sprintf("provider create failed: %v", err)}
	}

	if rec.Metadata == nil {
		rec.Metadata = make(map[string]string)
	}
	rec.Metadata["provider_record_id"] = providerID
	rec.Status = model.RecordStatusActive
	rec.PropagationStatus = model.PropagationPending

	stored, err := o.store.CreateRecord(rec)
	if err != nil {
		return RecordResult{
			Record:  rec,
			Outcome: OutcomeFailed,
			Error:   fmt.Sprintf("provisioned on provider (id %s) but failed to persist: %v", providerID, err),
		}
	}

	existing.keys[key] = true
	if rec.Purpose == model.PurposeSPF && rec.Type == model.RecordTypeTXT {
		existing.spfTXT[rec.Name] = append(existing.spfTXT[rec.Name], rec.Value)
	}
	return RecordResult{Record: stored, Outcome: OutcomeCreated}
}
