package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyDomainID string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report which email-authentication record purposes are configured for a domain.",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Store.Close()

		res, err := app.Orchestrator.VerifyConfiguration(context.Background(), verifyDomainID)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Domain %s:\n", res.DomainID)
		fmt.Printf("  Configured: %v\n", res.Configured)
		fmt.Printf("  Missing:    %v\n", res.Missing)
		fmt.Printf("  Fully configured: %v\n", res.FullyConfigured)

		if !res.FullyConfigured {
			os.Exit(1)
		}
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyDomainID, "domain-id", "", "Domain ID in the store (required)")
}
