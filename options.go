package resultwatch

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/resultwatch/page"
)

// watcherConfig holds mutable state during Watcher construction.
type watcherConfig struct {
	baseURL        string
	submitPath     string
	resultsPath    string
	pollInterval   time.Duration
	requestTimeout time.Duration
	headers        map[string]string
	messageField   string
	resultsField   string
	maxFailures    int
	startCursor    int
	pages          []page.Page
	logger         *slog.Logger
	batchCallbacks []func(Batch)
}

// Option is a function that configures a [Watcher] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*watcherConfig) error

// WithBaseURL sets the backend the form is submitted to and results are
// polled from. It is required.
//
// Example:
//
//	w, err := resultwatch.New(
//	    resultwatch.WithBaseURL("http://localhost:5000"),
//	)
//
// Returns an error unless the URL is absolute with an http or https scheme.
func WithBaseURL(raw string) Option {
	return func(cfg *watcherConfig) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base URL must use http or https scheme, got %q", u.Scheme)
		}
		if u.Host == "" {
			return errors.New("base URL must have a host")
		}
		cfg.baseURL = strings.TrimRight(raw, "/")
		return nil
	}
}

// WithSubmitPath sets the path the form is POSTed to. Defaults to "/submit".
func WithSubmitPath(path string) Option {
	return func(cfg *watcherConfig) error {
		p, err := normalizePath(path)
		if err != nil {
			return fmt.Errorf("submit path: %w", err)
		}
		cfg.submitPath = p
		return nil
	}
}

// WithResultsPath sets the path that is polled for results. Defaults to "/results".
func WithResultsPath(path string) Option {
	return func(cfg *watcherConfig) error {
		p, err := normalizePath(path)
		if err != nil {
			return fmt.Errorf("results path: %w", err)
		}
		cfg.resultsPath = p
		return nil
	}
}

// WithPollInterval sets the delay between processing one results response
// and requesting the next. Defaults to 2 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithRequestTimeout sets the timeout of every backend request.
// Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithHeaders adds custom HTTP headers to both the submission and the polls.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	w, err := resultwatch.New(
//	    resultwatch.WithBaseURL(base),
//	    resultwatch.WithHeaders("Authorization", "Bearer token123"),
//	)
func WithHeaders(keyValues ...string) Option {
	return func(cfg *watcherConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithMessageField sets the dot path of the status message in the submit
// response. Defaults to "message".
func WithMessageField(path string) Option {
	return func(cfg *watcherConfig) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("message field cannot be empty")
		}
		cfg.messageField = path
		return nil
	}
}

// WithResultsField sets the dot path of the cumulative results array in the
// results response. Defaults to "results".
func WithResultsField(path string) Option {
	return func(cfg *watcherConfig) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("results field cannot be empty")
		}
		cfg.resultsField = path
		return nil
	}
}

// WithMaxFailures stops polling after n consecutive failed polls. Zero, the
// default, keeps polling until stopped.
//
// Returns an error if n is negative.
func WithMaxFailures(n int) Option {
	return func(cfg *watcherConfig) error {
		if n < 0 {
			return errors.New("max failures cannot be negative")
		}
		cfg.maxFailures = n
		return nil
	}
}

// WithStartCursor makes the first [Watcher.Watch] skip the first n results,
// for resuming a watch whose entries are already displayed. A submission
// always restarts from zero.
//
// Returns an error if n is negative.
func WithStartCursor(n int) Option {
	return func(cfg *watcherConfig) error {
		if n < 0 {
			return errors.New("start cursor cannot be negative")
		}
		cfg.startCursor = n
		return nil
	}
}

// WithPages adds render targets. Every page receives every update, in the
// order given. Nil pages are ignored.
func WithPages(pages ...page.Page) Option {
	return func(cfg *watcherConfig) error {
		for _, p := range pages {
			if p != nil {
				cfg.pages = append(cfg.pages, p)
			}
		}
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Watcher.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *watcherConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithBatchCallback registers a function to be called after every poll,
// once the new entries were appended to the pages.
//
// Multiple callbacks may be registered; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. The next poll is not issued
// until every callback returned.
//
// Callbacks are invoked synchronously from a single goroutine. Panics within
// callbacks are recovered and logged; they do not stop polling. A callback
// may call [Watcher.Stop], [Watcher.Close] or [Watcher.Submit] to end or
// restart polling; no further batch is applied once it did.
//
// Nil callbacks are silently ignored.
func WithBatchCallback(cb func(Batch)) Option {
	return func(cfg *watcherConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.batchCallbacks = append(cfg.batchCallbacks, cb)
		return nil
	}
}

// normalizePath ensures a request path is non-empty and starts with "/".
func normalizePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("cannot be empty")
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p, nil
}
