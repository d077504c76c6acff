package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/resultwatch"
	"github.com/jpalmerr/resultwatch/config"
	"github.com/jpalmerr/resultwatch/form"
	"github.com/jpalmerr/resultwatch/page"
)

// submitCmd submits the configured form and follows the results.
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the form and follow the results",
	Long: `Submit a multipart form to the backend and print every new result.

The form is built from the config's fields and files, extended by -f and
--file flags. After the backend accepts it, the results list is polled and
new entries are printed until interrupted (Ctrl+C), SIGTERM, the --for
duration elapses, or polling gives up after max_failures.

Example:
  resultwatch submit -c config.yaml -f mode=fast --file file=./proxies.txt
  resultwatch submit -c config.yaml --for 5m`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	addConfigFlag(submitCmd)
	submitCmd.Flags().StringArrayP("field", "f", nil, "extra form field as key=value (repeatable)")
	submitCmd.Flags().StringArray("file", nil, "extra file upload as field=path (repeatable)")
	submitCmd.Flags().Duration("for", 0, "stop following after this long (0 follows until interrupted)")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	f, err := submitForm(cmd, cfg)
	if err != nil {
		return err
	}

	opts := append(config.WatcherOptions(cfg),
		resultwatch.WithPages(page.NewTerminal(os.Stdout)),
		resultwatch.WithLogger(logger),
	)
	w, err := resultwatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	sub, err := w.Submit(ctx, f)
	if err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}
	logger.Debug("following results", "submission_id", sub.ID)

	if d, _ := cmd.Flags().GetDuration("for"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	return waitResult(w.Wait(ctx))
}

// submitForm builds the config form and adds the flag fields and files.
func submitForm(cmd *cobra.Command, cfg *config.Config) (*form.Form, error) {
	f, err := config.BuildForm(cfg)
	if err != nil {
		return nil, err
	}

	pairs, _ := cmd.Flags().GetStringArray("field")
	fields, err := form.ParsePairs(pairs)
	if err != nil {
		return nil, err
	}
	for _, fld := range fields {
		f.Add(fld.Name, fld.Value)
	}

	uploads, _ := cmd.Flags().GetStringArray("file")
	for _, u := range uploads {
		field, path, ok := strings.Cut(u, "=")
		if !ok || field == "" || path == "" {
			return nil, fmt.Errorf("invalid --file %q: want field=path", u)
		}
		if err := f.AddFileFromPath(field, path); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// waitResult maps the end of following to the command's exit status.
// Interrupts and --for expiry are normal exits.
func waitResult(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	case errors.Is(err, resultwatch.ErrTooManyFailures):
		return fmt.Errorf("polling stopped: %w", err)
	default:
		return err
	}
}
