package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the provider API token from the config file.",
	Long: `Loads the configuration file and pings the authoritative DNS provider
with the configured token, reporting whether it is accepted.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Store.Close()

		debugPrintln("[DEBUG] pinging provider with configured token")
		client := app.NewClient(app.Config.ProviderToken)
		if err := client.Ping(context.Background()); err != nil {
			fmt.Printf("Ping failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Ping successful: provider token accepted.")
	},
}
