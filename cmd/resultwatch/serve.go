package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/resultwatch"
	"github.com/jpalmerr/resultwatch/config"
	"github.com/jpalmerr/resultwatch/dashboard"
	"github.com/jpalmerr/resultwatch/form"
	"github.com/jpalmerr/resultwatch/internal/server"
	"github.com/jpalmerr/resultwatch/internal/store"
	"github.com/jpalmerr/resultwatch/page"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd serves the results page to browsers.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the results page",
	Long: `Serve the results page to browsers.

The page shows an input form. Submitting it forwards the form, together with
the config's fields and files, to the backend. The results list is then
polled and streamed to every open page via Server-Sent Events.

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  resultwatch serve -c config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addConfigFlag(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	mem := store.NewMemoryStore(cfg.Title)
	pages := []page.Page{mem}

	if cfg.StateFile != "" {
		j, _, err := openJournal(cfg.ResolvePath(cfg.StateFile), logger, mem)
		if err != nil {
			return fmt.Errorf("failed to open state file: %w", err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				logger.Warn("failed to close state file", "error", err)
			}
		}()
		pages = append(pages, j)
	}

	opts := append(config.WatcherOptions(cfg),
		resultwatch.WithPages(pages...),
		resultwatch.WithLogger(logger),
	)
	w, err := resultwatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	logger.Info("starting server",
		"port", cfg.Port,
		"base_url", cfg.BaseURL,
		"poll_interval", cfg.PollInterval.Duration().String(),
	)

	srv := server.NewServer(mem, cfg.Port, dashboard.Assets, submitHandler(w, cfg, logger), logger)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(gctx); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return w.Close()
	})

	// wait for the group to finish
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-done:
			if err != nil {
				return err
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

// submitHandler forwards browser forms to w. The config's fields and files
// are sent first, followed by whatever the browser submitted.
func submitHandler(w *resultwatch.Watcher, cfg *config.Config, logger *slog.Logger) server.SubmitFunc {
	return func(ctx context.Context, browser *form.Form) (string, error) {
		f, err := config.BuildForm(cfg)
		if err != nil {
			return "", err
		}
		for _, fld := range browser.Fields() {
			f.Add(fld.Name, fld.Value)
		}
		for _, file := range browser.Files() {
			f.AddFile(file.Field, file.Name, file.Content)
		}

		sub, err := w.Submit(ctx, f)
		if errors.Is(err, resultwatch.ErrSubmitInFlight) {
			return "", fmt.Errorf("%w: %w", server.ErrBusy, err)
		}
		if err != nil {
			return "", err
		}
		logger.Info("browser submission forwarded", "submission_id", sub.ID, "fields", f.Len())
		return sub.Message, nil
	}
}
