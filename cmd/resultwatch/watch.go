package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/resultwatch"
	"github.com/jpalmerr/resultwatch/config"
	"github.com/jpalmerr/resultwatch/page"
)

// watchCmd follows the results list without submitting.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the results list without submitting",
	Long: `Poll the backend's results list and print every new entry.

Nothing is submitted. With a state file (--state or state_file in the
config), consumed entries are journaled: on restart they are printed again
and polling resumes after them instead of from the start of the list.

Example:
  resultwatch watch -c config.yaml
  resultwatch watch -c config.yaml --state ./results.db`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addConfigFlag(watchCmd)
	watchCmd.Flags().String("state", "", "journal file for resuming (overrides state_file)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	statePath := cfg.StateFile
	if flag, _ := cmd.Flags().GetString("state"); flag != "" {
		statePath = flag
	} else if statePath != "" {
		statePath = cfg.ResolvePath(statePath)
	}

	terminal := page.NewTerminal(os.Stdout)
	pages := []page.Page{terminal}
	cursor := 0

	if statePath != "" {
		j, consumed, err := openJournal(statePath, logger, terminal)
		if err != nil {
			return fmt.Errorf("failed to open state file: %w", err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				logger.Warn("failed to close state file", "error", err)
			}
		}()
		pages = append(pages, j)
		cursor = consumed
	}

	opts := append(config.WatcherOptions(cfg),
		resultwatch.WithPages(pages...),
		resultwatch.WithLogger(logger),
		resultwatch.WithStartCursor(cursor),
	)
	w, err := resultwatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	logger.Info("watching results", "cursor", cursor)
	if err := w.Watch(ctx); err != nil {
		return err
	}
	return waitResult(w.Wait(ctx))
}
