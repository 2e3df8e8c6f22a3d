package main

import (
	"fmt"
	"os"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/spf13/cobra"
)

var (
	statusSessionID string
	statusDomainID  string
	statusUserID    string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read a polling session's status (authorized by requesting user).",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Store.Close()

		var sess model.PollingSession
		var statusErr error
		if statusSessionID != "" {
			sess, statusErr = app.Status.GetPollingSessionWithAuth(statusSessionID, statusUserID)
		} else {
			sess, statusErr = app.Status.GetDomainActivePollingSession(statusDomainID, statusUserID)
		}
		if statusErr != nil {
			cmd.PrintErrf("Error: %v\n", statusErr)
			os.Exit(1)
		}

		printSession(sess)
	},
}

var statusRecordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List DNS record propagation statuses for a domain (authorized by requesting user).",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Store.Close()

		records, err := app.Status.GetDNSRecordStatuses(statusDomainID, statusUserID)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}

		for _, r := range records {
			fmt.Printf("%-6s %-20s %-30s %3d%% %s\n", r.Type, r.Name, r.Value, r.PropagationCoverage, r.PropagationStatus)
		}
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusSessionID, "session-id", "", "Polling session ID (mutually exclusive with --domain-id)")
	statusCmd.Flags().StringVar(&statusDomainID, "domain-id", "", "Domain ID whose active session to show")
	statusCmd.Flags().StringVar(&statusUserID, "user-id", "", "Requesting user ID, checked against session/domain ownership (required)")

	statusRecordsCmd.Flags().StringVar(&statusDomainID, "domain-id", "", "Domain ID (required)")
	statusRecordsCmd.Flags().StringVar(&statusUserID, "user-id", "", "Requesting user ID, checked against domain ownership (required)")

	statusCmd.AddCommand(statusRecordsCmd)
}
