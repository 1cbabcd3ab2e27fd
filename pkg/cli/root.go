// Package cli implements the lagd command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lagd",
	Short: "lagd is a configurable mock endpoint for load testing",
	Long: `lagd serves a mock HTTP endpoint with configurable latency, error
rates, and response payloads, so load-testing tools have a realistic
target without a real backend.

Per-path behavior is managed at runtime through the admin API under
/admin; every other path answers with its configured (or default)
simulated behavior.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	initServeCmd()
	rootCmd.AddCommand(versionCmd)
}
