// Package main is the entry point for the resultwatch CLI.
//
// resultwatch can be used as a library (SDK) or as a standalone binary with
// YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	resultwatch submit -c config.yaml    # Submit and follow results in the terminal
//	resultwatch watch -c config.yaml     # Follow results without submitting
//	resultwatch serve -c config.yaml     # Serve the results page to browsers
//	resultwatch validate -c config.yaml  # Validate configuration
//	resultwatch version                  # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "resultwatch",
	Short: "Submit a form and follow a backend's results list",
	Long: `resultwatch submits a multipart form to a backend and then polls the
backend's cumulative results list, showing every new entry exactly once.

Quick start:
  1. Create a config file (resultwatch.yaml)
  2. Run: resultwatch submit -c resultwatch.yaml -f proxies=1.2.3.4:8080
  3. Or run: resultwatch serve -c resultwatch.yaml and open http://localhost:8080

Example config:
  base_url: http://localhost:5000
  poll_interval: 2s
  files:
    file: ./proxies.txt`,
	SilenceUsage: true,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this resultwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "resultwatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); overrides the config file")
}
