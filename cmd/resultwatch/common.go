package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/resultwatch/config"
	"github.com/jpalmerr/resultwatch/internal/store"
	"github.com/jpalmerr/resultwatch/page"
)

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// openJournal opens the journal at path and replays it onto pages. It
// returns the journal and the number of entries already consumed.
func openJournal(path string, logger *slog.Logger, pages ...page.Page) (*store.Journal, int, error) {
	j, err := store.OpenJournal(path)
	if err != nil {
		return nil, 0, err
	}

	snap, err := j.Snapshot()
	if err != nil {
		_ = j.Close()
		return nil, 0, err
	}

	target := page.Multi(pages...)
	if snap.Status != "" {
		if err := target.SetStatus(snap.Status); err != nil {
			logger.Warn("failed to restore status", "error", err)
		}
	}
	if snap.InputHidden {
		if err := target.HideInput(); err != nil {
			logger.Warn("failed to restore input state", "error", err)
		}
	}
	if len(snap.Items) > 0 {
		if err := target.Append(snap.Items...); err != nil {
			logger.Warn("failed to restore items", "error", err)
		}
	}

	logger.Info("journal opened", "path", j.Path(), "items", len(snap.Items))
	return j, len(snap.Items), nil
}
