package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dean-jl/dnsengine/internal/model"
	"github.com/spf13/cobra"
)

var (
	pollDomainID   string
	pollUserID     string
	pollSessionID  string
	pollDomainFQDN string
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Manage propagation-polling sessions for a domain's DNS records.",
}

var pollStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start (or resume) a polling session for a domain.",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Store.Close()

		sess, err := app.Scheduler.StartSession(context.Background(), pollDomainID, pollUserID)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}

		app.Status.InvalidateDomain(pollDomainID)
		printSession(sess)
	},
}

var pollCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single propagation-check tick for a session.",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Store.Close()

		sess, err := app.Scheduler.CheckProgress(context.Background(), pollSessionID, pollDomainFQDN)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}

		app.Status.InvalidateSession(pollSessionID)
		app.Status.InvalidateDomain(sess.DomainID)
		printSession(sess)
	},
}

var pollCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel an in-progress polling session.",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Store.Close()

		sess, err := app.Scheduler.CancelSession(context.Background(), pollSessionID)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}

		app.Status.InvalidateSession(pollSessionID)
		app.Status.InvalidateDomain(sess.DomainID)
		printSession(sess)
	},
}

func printSession(sess model.PollingSession) {
	fmt.Printf("Session %s (domain %s):\n", sess.ID, sess.DomainID)
	fmt.Printf("  Status:   %s\n", sess.Status)
	fmt.Printf("  Progress: %d%% (%d/%d records propagated)\n", sess.OverallProgress, sess.PropagatedRecords, sess.TotalRecords)
	if sess.EstimatedCompletion != nil {
		fmt.Printf("  ETA:      %s\n", sess.EstimatedCompletion.Format("2006-01-02T15:04:05Z07:00"))
	}
}

func init() {
	pollStartCmd.Flags().StringVar(&pollDomainID, "domain-id", "", "Domain ID to start polling (required)")
	pollStartCmd.Flags().StringVar(&pollUserID, "user-id", "", "Requesting user ID (required)")

	pollCheckCmd.Flags().StringVar(&pollSessionID, "session-id", "", "Polling session ID (required)")
	pollCheckCmd.Flags().StringVar(&pollDomainFQDN, "domain", "", "Domain FQDN to check records against (required)")

	pollCancelCmd.Flags().StringVar(&pollSessionID, "session-id", "", "Polling session ID (required)")

	pollCmd.AddCommand(pollStartCmd, pollCheckCmd, pollCancelCmd)
}
