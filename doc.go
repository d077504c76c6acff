// Package resultwatch submits a form to an HTTP backend and then watches the
// backend's cumulative results list, rendering every new entry exactly once.
//
// The backend contract is small: POST <base>/submit accepts a multipart form
// and answers with JSON carrying a "message"; GET <base>/results answers with
// JSON carrying "results", a list of strings that only ever grows for the
// current submission. Field names and paths are configurable.
//
// # Quick Start
//
//	w, _ := resultwatch.New(
//	    resultwatch.WithBaseURL("http://localhost:5000"),
//	    resultwatch.WithPages(page.NewTerminal(os.Stdout)),
//	)
//	defer w.Close()
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	f := form.New().Add("proxies", "1.2.3.4:8080")
//	if _, err := w.Submit(ctx, f); err != nil {
//	    log.Fatal(err)
//	}
//	_ = w.Wait(ctx) // blocks until polling ends or ctx is cancelled
//
// # Configuration
//
// Watcher uses the functional options pattern for configuration:
//
//	w, err := resultwatch.New(
//	    resultwatch.WithBaseURL(base),
//	    resultwatch.WithPollInterval(500 * time.Millisecond),
//	    resultwatch.WithHeaders("Authorization", "Bearer token"),
//	    resultwatch.WithResultsField("data.results"),
//	    resultwatch.WithMaxFailures(10),
//	    resultwatch.WithBatchCallback(func(b resultwatch.Batch) { ... }),
//	)
//
// # Polling
//
// A poll is issued right after a successful submission and then
// poll-interval after each response was processed, so requests never
// overlap. The watcher keeps an explicit cursor: the number of entries
// already rendered. Only results beyond the cursor are appended; a list that
// did not grow appends nothing. Failed polls are logged, reported to batch
// callbacks and retried; with [WithMaxFailures] polling gives up and
// [Watcher.Wait] returns [ErrTooManyFailures]. The backend has no way to
// signal completion, so polling otherwise runs until stopped.
//
// # Rendering
//
// Status text and entries are passed to pages verbatim. Pages that produce
// markup escape at render time (see [page.RenderList] and [page.Sanitize]).
//
// # Architecture
//
//   - form: multipart form building and parsing
//   - page: render targets (terminal, recorder, HTML list rendering)
//   - internal/poller: HTTP client, JSON field access and the poll loop
//   - internal/store: browser page model with pub/sub, bbolt journal
//   - internal/server: HTTP server with the page, REST API and Server-Sent Events
//   - dashboard: embedded web UI assets
//   - config: YAML configuration for the resultwatch command
//
// The internal packages are not part of the public API and may change
// without notice.
package resultwatch
