package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dean-jl/dnsengine/internal/orchestrator"
	"github.com/spf13/cobra"
)

var (
	provisionDomainID      string
	provisionDomainFQDN    string
	provisionZoneID        string
	provisionPlatform      string
	provisionExistingSPF   string
	provisionIncludes      []string
	provisionDMARCPolicy   string
	provisionDMARCRUA      string
	provisionDMARCRUF      string
	provisionDKIMSelector  string
	provisionDKIMPublicKey string
	provisionDKIMKeyType   string
	provisionTrackingSub   string
	provisionTrackingTgt   string
	provisionSkipDupes     bool
	provisionDryRun        bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Generate and provision the email-authentication record set for a domain.",
	Long: `Generates SPF, DKIM, DMARC, MX, and (optionally) tracking CNAME records
for a domain, deduplicates them against existing active records, and
provisions any that are missing at the authoritative provider.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Store.Close()

		logger := setupLogger()
		logger.Debug("starting provision", "domain", provisionDomainFQDN)

		cfg := orchestrator.SetupConfig{
			DomainID:           provisionDomainID,
			DomainFQDN:         provisionDomainFQDN,
			ZoneID:             provisionZoneID,
			ProviderToken:      app.Config.ProviderToken,
			Platform:           orchestrator.Platform(provisionPlatform),
			ExistingSPF:        provisionExistingSPF,
			AdditionalIncludes: provisionIncludes,
			DMARCPolicy:        dmarcPolicyOrDefault(app, provisionDMARCPolicy),
			DMARCAggregateRUA:  dmarcRUAOrDefault(app, provisionDMARCRUA),
			DMARCForensicRUF:   provisionDMARCRUF,
			SkipDuplicates:     provisionSkipDupes,
			DryRun:             provisionDryRun || app.Config.DryRun,
		}

		if provisionDKIMPublicKey != "" {
			cfg.DKIM = &orchestrator.DKIMMaterial{
				Selector:  selectorOrConfigDefault(app, provisionDKIMSelector),
				PublicKey: provisionDKIMPublicKey,
				KeyType:   keyTypeOrConfigDefault(app, provisionDKIMKeyType),
			}
		} else {
			verbosePrintln("[VERBOSE] no DKIM public key supplied; DKIM will be reported as a warning")
		}

		if provisionTrackingTgt != "" {
			cfg.Tracking = &orchestrator.TrackingConfig{
				Subdomain: provisionTrackingSub,
				Target:    provisionTrackingTgt,
			}
		}

		if cfg.DryRun {
			fmt.Println("DRY-RUN: records will be generated but not provisioned.")
		}

		result, err := app.Orchestrator.Setup(context.Background(), cfg)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}

		app.Status.InvalidateDomain(provisionDomainID)
		printSetupResult(result)

		if !result.Success {
			os.Exit(1)
		}
	},
}

func dmarcPolicyOrDefault(app *App, v string) string {
	if v != "" {
		return v
	}
	return app.Config.DMARC.Policy
}

func dmarcRUAOrDefault(app *App, v string) string {
	if v != "" {
		return v
	}
	return app.Config.DMARC.AggregateRUA
}

func selectorOrConfigDefault(app *App, v string) string {
	if v != "" {
		return v
	}
	return app.Config.DKIM.Selector
}

func keyTypeOrConfigDefault(app *App, v string) string {
	if v != "" {
		return v
	}
	return app.Config.DKIM.KeyType
}

func printSetupResult(result orchestrator.Result) {
	fmt.Printf("\nProvisioning Summary for %s:\n", result.DomainID)
	fmt.Printf("  Created: %d\n", result.SucceededCount)
	fmt.Printf("  Skipped: %d\n", result.SkippedCount)
	fmt.Printf("  Failed:  %d\n", result.FailedCount)

	if verbose := cliConfig.Verbose; verbose {
		for _, rec := range result.Records {
			line := fmt.Sprintf("  [%s] %s %s %s -> %s", rec.Outcome, rec.Record.Type, rec.Record.Purpose, rec.Record.Name, rec.Record.Value)
			if rec.Error != "" {
				line += fmt.Sprintf(" (%s)", rec.Error)
			}
			fmt.Println(line)
		}
	}

	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w.Message)
	}
	for _, e := range result.Errors {
		fmt.Printf("  error: %s\n", e.Message)
	}

	fmt.Printf("  Success: %v\n", result.Success)
}

func init() {
	provisionCmd.Flags().StringVar(&provisionDomainID, "domain-id", "", "Domain ID in the store (required)")
	provisionCmd.Flags().StringVar(&provisionDomainFQDN, "domain", "", "Domain FQDN to provision (required)")
	provisionCmd.Flags().StringVar(&provisionZoneID, "zone-id", "", "Provider zone ID (required)")
	provisionCmd.Flags().StringVar(&provisionPlatform, "platform", "custom", "Email platform: google-workspace, microsoft-365, or custom")
	provisionCmd.Flags().StringVar(&provisionExistingSPF, "existing-spf", "", "Existing unflattened SPF record to flatten (optional)")
	provisionCmd.Flags().StringSliceVar(&provisionIncludes, "include", nil, "Additional SPF includes to add as include: mechanisms (comma-separated)")
	provisionCmd.Flags().StringVar(&provisionDMARCPolicy, "dmarc-policy", "", "DMARC policy: none, quarantine, or reject (default from config)")
	provisionCmd.Flags().StringVar(&provisionDMARCRUA, "dmarc-rua", "", "DMARC aggregate report address (default from config)")
	provisionCmd.Flags().StringVar(&provisionDMARCRUF, "dmarc-ruf", "", "DMARC forensic report address")
	provisionCmd.Flags().StringVar(&provisionDKIMSelector, "dkim-selector", "", "DKIM selector (default from config)")
	provisionCmd.Flags().StringVar(&provisionDKIMPublicKey, "dkim-public-key", "", "DKIM public key material; omit to skip DKIM generation")
	provisionCmd.Flags().StringVar(&provisionDKIMKeyType, "dkim-key-type", "", "DKIM key type: rsa or ed25519 (default from config)")
	provisionCmd.Flags().StringVar(&provisionTrackingSub, "tracking-subdomain", "click", "Tracking CNAME subdomain")
	provisionCmd.Flags().StringVar(&provisionTrackingTgt, "tracking-target", "", "Tracking CNAME target; omit to skip tracking CNAME generation")
	provisionCmd.Flags().BoolVar(&provisionSkipDupes, "skip-duplicates", true, "Skip records that already exist rather than failing")
	provisionCmd.Flags().BoolVar(&provisionDryRun, "dry-run", false, "Generate records without provisioning them")
}
