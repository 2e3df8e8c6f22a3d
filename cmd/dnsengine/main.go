// Command dnsengine provisions and monitors the DNS records a domain
// needs for cold-email deliverability: SPF (flattened), DKIM, DMARC,
// MX, and an optional tracking CNAME.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dean-jl/dnsengine/internal/config"
	"github.com/spf13/cobra"
)

// CLIConfig holds CLI flag values shared across subcommands.
type CLIConfig struct {
	ConfigPath string
	Debug      bool
	Verbose    bool
}

var cliConfig = &CLIConfig{}

var rootCmd = &cobra.Command{
	Use:   "dnsengine",
	Short: "dnsengine provisions and tracks propagation of email-authentication DNS records.",
	Long:  "A command-line tool to provision and monitor SPF, DKIM, DMARC, MX, and tracking DNS records for cold-email sending domains.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cliConfig.ConfigPath, "config", "config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&cliConfig.Debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&cliConfig.Verbose, "verbose", false, "Enable verbose output")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pingCmd)

	rootCmd.Version = config.Version
	rootCmd.SetHelpTemplate("dnsengine v" + config.Version + "\n\n{{.Long}}\n\nUsage:\n  {{.UseLine}}\n\nAvailable Commands:\n{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name \"help\"))}}  {{rpad .Name .NamePadding }} {{.Short}}\n{{end}}{{end}}\n\nFlags:\n{{.Flags.FlagUsages | trimTrailingWhitespaces}}\n\nUse \"{{.UseLine}} [command] --help\" for more information about a command.\n")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger() *slog.Logger {
	if cliConfig.Debug {
		logLevel := new(slog.LevelVar)
		logLevel.Set(slog.LevelDebug)
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func debugPrintln(a ...interface{}) {
	if cliConfig.Debug {
		fmt.Println(a...)
	}
}

func debugPrintlnf(format string, a ...interface{}) {
	if cliConfig.Debug {
		fmt.Printf(format, a...)
	}
}

func verbosePrintln(a ...interface{}) {
	if cliConfig.Verbose {
		fmt.Println(a...)
	}
}

func verbosePrintlnf(format string, a ...interface{}) {
	if cliConfig.Verbose {
		fmt.Printf(format, a...)
	}
}

func main() {
	Execute()
}
