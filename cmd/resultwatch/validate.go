package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/resultwatch/config"
)

// validateCmd validates a config file without contacting the backend.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a resultwatch configuration file without contacting the backend.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  resultwatch validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addConfigFlag(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Backend:       %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "  Submit:        POST %s\n", cfg.SubmitPath)
	fmt.Fprintf(out, "  Results:       GET %s\n", cfg.ResultsPath)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Form:          %d fields, %d files\n", len(cfg.Fields), len(cfg.Files))
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)

	return nil
}
