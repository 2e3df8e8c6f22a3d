package orchestrator

import (
	"context"
	"fmt"

	"github.com/dean-jl/dnsengine/internal/dkim"
	"github.com/dean-jl/dnsengine/internal/dmarc"
	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/dean-jl/dnsengine/internal/mxrecord"
	"github.com/dean-jl/dnsengine/internal/spfcache"
	"github.com/dean-jl/dnsengine/internal/spfflatten"
	"github.com/dean-jl/dnsengine/internal/tracking"
)

// generated is the set of records produced by phase 1, before
// dedup/provisioning.
type generated struct {
	records  []model.DNSRecord
	warnings []model.Issue
	errors   []model.Issue
}

// generate builds the SPF/DKIM/DMARC/MX/tracking record set for a
// domain per spec.md §4.11 phase 1.
func (o *Orchestrator) generate(ctx context.Context, cfg SetupConfig) generated {
	var g generated

	// SPF: flatten an existing record if supplied, else synthesize
	// platform defaults + user includes as a starting record.
	spfSource := cfg.ExistingSPF
	if spfSource == "" {
		spfSource = platformDefaultSPF(cfg.Platform)
	}
	resolved := spfcache.New(o.dns).Resolve(ctx, cfg.DomainFQDN)
	resolvedIncludes := spfcache.ResolvedIncludes(resolved)
	flattenRes := spfflatten.Flatten(cfg.DomainFQDN, spfSource, resolved, resolvedIncludes, spfflatten.Options{
		AdditionalIncludes: cfg.AdditionalIncludes,
		IPv6Support:        true,
	})
	g.warnings = append(g.warnings, flattenRes.Warnings...)
	if !flattenRes.Valid {
		g.errors = append(g.errors, flattenRes.Errors...)
	} else {
		g.records = append(g.records, model.DNSRecord{
			DomainID: cfg.DomainID,
			Type:     model.RecordTypeTXT,
			Name:     "@",
			Value:    flattenRes.Flattened,
			TTL:      model.DefaultTTL,
			Purpose:  model.PurposeSPF,
			Status:   model.RecordStatusActive,
		})
	}

	// DKIM: absence of material degrades to a warning, not a hard
	// failure (spec.md §4.11 phase 1).
	if cfg.DKIM != nil {
		rec := dkim.Build(cfg.DomainFQDN, cfg.DKIM.PublicKey, dkim.Options{Selector: cfg.DKIM.Selector, KeyType: cfg.DKIM.KeyType, Split: true})
		g.errors = append(g.errors, rec.Errors...)
		g.warnings = append(g.warnings, rec.Warnings...)
		if len(rec.Errors) == 0 {
			g.records = append(g.records, model.DNSRecord{
				DomainID: cfg.DomainID,
				Type:     model.RecordTypeTXT,
				Name:     fmt.Sprintf("%s._domainkey", selectorOrDefault(cfg.DKIM.Selector)),
				Value:    rec.Value,
				TTL:      model.DefaultTTL,
				Purpose:  model.PurposeDKIM,
				Status:   model.RecordStatusActive,
				Metadata: map[string]string{"selector": selectorOrDefault(cfg.DKIM.Selector)},
			})
		}
	} else {
		g.warnings = append(g.warnings, model.NewValidationIssue("dkim", "no dkim material supplied; configure dkim manually later"))
	}

	// DMARC.
	dmarcCfg := dmarc.Config{Policy: dmarc.Policy(cfg.DMARCPolicy), ReportAggregate: cfg.DMARCAggregateRUA, ReportForensic: cfg.DMARCForensicRUF}
	if dmarcCfg.Policy == "" {
		dmarcCfg.Policy = dmarc.PolicyNone
	}
	dmarcValue, issues := dmarc.Build(dmarcCfg)
	g.errors = append(g.errors, issues...)
	if len(issues) == 0 {
		g.records = append(g.records, model.DNSRecord{
			DomainID: cfg.DomainID,
			Type:     model.RecordTypeTXT,
			Name:     "_dmarc",
			Value:    dmarcValue,
			TTL:      model.DefaultTTL,
			Purpose:  model.PurposeDMARC,
			Status:   model.RecordStatusActive,
		})
	}

	// MX: platform-specific default set (Google Workspace or Microsoft
	// 365). The custom platform has no set, so no MX records are
	// generated for it.
	mxSet := platformMXSet(cfg.Platform)
	_, entries, mxErrs, mxWarnings := mxrecord.Generate(mxSet)
	g.errors = append(g.errors, mxErrs...)
	g.warnings = append(g.warnings, mxWarnings...)
	for _, e := range entries {
		g.records = append(g.records, model.DNSRecord{
			DomainID: cfg.DomainID,
			Type:     model.RecordTypeMX,
			Name:     "@",
			Value:    e.Exchange,
			Priority: e.Priority,
			TTL:      model.DefaultTTL,
			Purpose:  model.PurposeMX,
			Status:   model.RecordStatusActive,
		})
	}

	// Tracking CNAME, when enabled.
	if cfg.Tracking != nil {
		rec := tracking.Build(cfg.DomainFQDN, cfg.Tracking.Subdomain, cfg.Tracking.Target)
		g.errors = append(g.errors, rec.Errors...)
		g.warnings = append(g.warnings, rec.Warnings...)
		if len(rec.Errors) == 0 {
			g.records = append(g.records, model.DNSRecord{
				DomainID: cfg.DomainID,
				Type:     model.RecordTypeCNAME,
				Name:     cfg.Tracking.Subdomain,
				Value:    rec.Target,
				TTL:      model.DefaultTTL,
				Purpose:  model.PurposeTracking,
				Status:   model.RecordStatusActive,
			})
		}
	}

	return g
}

func selectorOrDefault(selector string) string {
	if selector == "" {
		return dkim.DefaultSelector
	}
	return selector
}

func platformDefaultSPF(p Platform) string {
	switch p {
	case PlatformGoogleWorkspace:
		return "v=spf1 include:_spf.google.com ~all"
	case PlatformMicrosoft365:
		return "v=spf1 include:spf.protection.outlook.com ~all"
	default:
		return "v=spf1 ~all"
	}
}

func platformMXSet(p Platform) []mxrecord.Entry {
	switch p {
	case PlatformGoogleWorkspace:
		return mxrecord.GoogleWorkspace
	case PlatformMicrosoft365:
		return []mxrecord.Entry{{Priority: 0, Exchange: "mail.protection.outlook.com"}}
	default:
		return nil
	}
}
