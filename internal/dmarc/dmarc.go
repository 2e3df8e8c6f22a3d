// Package dmarc builds, parses, and validates DMARC TXT record values,
// and implements the policy-progression safety graph.
package dmarc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dean-jl/dnsengine/internal/model"
)

// Policy is the DMARC disposition a receiver should apply.
type Policy string

const (
	PolicyNone       Policy = "none"
	PolicyQuarantine Policy = "quarantine"
	PolicyReject     Policy = "reject"
)

// Alignment is the strict/relaxed alignment mode for aspf/adkim.
type Alignment string

const (
	AlignRelaxed Alignment = "r"
	AlignStrict  Alignment = "s"
)

const defaultReportInterval = 86400

// Config is the typed input to Build.
type Config struct {
	Policy          Policy
	SubdomainPolicy Policy // optional, "" omits sp=
	Percent         int    // 0-100; 0 value means unset/default(100)
	ReportAggregate string // rua mailto address, optional
	ReportForensic  string // ruf mailto address, optional
	SPFAlignment    Alignment
	DKIMAlignment   Alignment
	ReportInterval  int    // seconds; 0 means default 86400
	ReportFormat    string // rf=, optional
}

// Build constructs the _dmarc.domain TXT value from a typed config.
func Build(cfg Config) (string, []model.Issue) {
	var issues []model.Issue
	if cfg.Policy == "" {
		issues = append(issues, model.NewValidationIssue("policy", "policy is required"))
		return "", issues
	}

	var b strings.Builder
	b.WriteString("v=DMARC1; p=")
	b.WriteString(string(cfg.Policy))

	if cfg.SubdomainPolicy != "" {
		fmt.Fprintf(&b, "; sp=%s", cfg.SubdomainPolicy)
	}
	if cfg.Percent != 0 && cfg.Percent != 100 {
		if cfg.Percent < 0 || cfg.Percent > 100 {
			issues = append(issues, model.NewValidationIssue("pct", "percentage %d out of range [0,100]", cfg.Percent))
		} else {
			fmt.Fprintf(&b, "; pct=%d", cfg.Percent)
		}
	}
	if cfg.SPFAlignment == AlignStrict {
		b.WriteString("; aspf=s")
	}
	if cfg.DKIMAlignment == AlignStrict {
		b.WriteString("; adkim=s")
	}
	if cfg.ReportAggregate != "" {
		fmt.Fprintf(&b, "; rua=mailto:%s", cfg.ReportAggregate)
	}
	if cfg.ReportForensic != "" {
		fmt.Fprintf(&b, "; ruf=mailto:%s", cfg.ReportForensic)
	}
	if cfg.ReportInterval != 0 && cfg.ReportInterval != defaultReportInterval {
		fmt.Fprintf(&b, "; ri=%d", cfg.ReportInterval)
	}
	if cfg.ReportFormat != "" {
		fmt.Fprintf(&b, "; rf=%s", cfg.ReportFormat)
	}

	return b.String(), issues
}

// Parse is the inverse of Build: it extracts a Config from a raw TXT
// value, tolerating tags in any order.
func Parse(raw string) (Config, error) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "v=DMARC1") {
		return Config{}, fmt.Errorf("not a dmarc record: missing v=DMARC1 prefix")
	}

	cfg := Config{}
	var hasPolicy bool

	for _, tag := range strings.Split(raw, ";") {
		tag = strings.TrimSpace(tag)
		key, value, ok := strings.Cut(tag, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.ToLower(key))
		value = strings.TrimSpace(value)

		switch key {
		case "p":
			cfg.Policy = Policy(value)
			hasPolicy = true
		case "sp":
			cfg.SubdomainPolicy = Policy(value)
		case "pct":
			if n, err := strconv.Atoi(value); err == nil {
				cfg.Percent = n
			}
		case "aspf":
			cfg.SPFAlignment = Alignment(value)
		case "adkim":
			cfg.DKIMAlignment = Alignment(value)
		case "rua":
			cfg.ReportAggregate = strings.TrimPrefix(value, "mailto:")
		case "ruf":
			cfg.ReportForensic = strings.TrimPrefix(value, "mailto:")
		case "ri":
			if n, err := strconv.Atoi(value); err == nil {
				cfg.ReportInterval = n
			}
		case "rf":
			cfg.ReportFormat = value
		}
	}

	if !hasPolicy {
		return Config{}, fmt.Errorf("dmarc record missing required p= policy tag")
	}
	return cfg, nil
}

// Validate requires v=DMARC1 and a well-formed p= policy.
func Validate(raw string) []model.Issue {
	var issues []model.Issue
	cfg, err := Parse(raw)
	if err != nil {
		issues = append(issues, model.NewValidationIssue("record", "%v", err))
		return issues
	}
	switch cfg.Policy {
	case PolicyNone, PolicyQuarantine, PolicyReject:
	default:
		issues = append(issues, model.NewValidationIssue("policy", "invalid policy %q", cfg.Policy))
	}
	return issues
}
