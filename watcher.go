package resultwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/resultwatch/form"
	"github.com/jpalmerr/resultwatch/internal/poller"
	"github.com/jpalmerr/resultwatch/page"
)

const (
	defaultSubmitPath     = "/submit"
	defaultResultsPath    = "/results"
	defaultPollInterval   = 2 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultMessageField   = "message"
	defaultResultsField   = "results"

	// SubmittingStatus is shown while a submission is in flight.
	SubmittingStatus = "Submitting..."

	// SubmissionIDHeader carries the id generated for every submission.
	SubmissionIDHeader = "X-Submission-ID"
)

// Watcher submits a form to a backend and then polls the backend's
// cumulative results list, appending each new entry to its pages exactly
// once and in order.
//
// The typical lifecycle is:
//
//	w, err := resultwatch.New(
//	    resultwatch.WithBaseURL("http://localhost:5000"),
//	    resultwatch.WithPages(page.NewTerminal(os.Stdout)),
//	)
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//	defer w.Close()
//
//	if _, err := w.Submit(ctx, form.New().Add("proxies", list)); err != nil {
//	    return err
//	}
//	return w.Wait(ctx)
//
// All methods are safe for concurrent use. Pages are only ever called from
// one goroutine at a time.
type Watcher struct {
	submitURL    string
	resultsURL   string
	interval     time.Duration
	timeout      time.Duration
	headers      map[string]string
	messageField string
	resultsField string
	maxFailures  int
	page         page.Page
	logger       *slog.Logger
	callbacks    []func(Batch)
	client       *poller.Client

	mu         sync.Mutex
	state      State
	cursor     int
	submitting bool
	closed     bool
	current    *run
}

// run is one poll loop together with the goroutine applying its batches.
type run struct {
	loop *poller.Loop
	done chan struct{}
	err  error // set before done is closed

	// stopping is set before the loop is stopped; no batch is applied after it.
	stopping atomic.Bool
	// dispatching is true while batch callbacks run on the consumer goroutine.
	dispatching atomic.Bool
}

// New creates a new [Watcher] with the given options.
//
// [WithBaseURL] is required. Other options have sensible defaults:
//   - Submit path: /submit
//   - Results path: /results
//   - Poll interval: 2 seconds
//   - Request timeout: 10 seconds
//   - Message field: message, results field: results
//
// Returns an error if the base URL is missing or if any option is invalid.
func New(opts ...Option) (*Watcher, error) {
	cfg := &watcherConfig{
		submitPath:     defaultSubmitPath,
		resultsPath:    defaultResultsPath,
		pollInterval:   defaultPollInterval,
		requestTimeout: defaultRequestTimeout,
		headers:        make(map[string]string),
		messageField:   defaultMessageField,
		resultsField:   defaultResultsField,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.baseURL == "" {
		return nil, errors.New("base URL is required")
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		submitURL:    cfg.baseURL + cfg.submitPath,
		resultsURL:   cfg.baseURL + cfg.resultsPath,
		interval:     cfg.pollInterval,
		timeout:      cfg.requestTimeout,
		headers:      cfg.headers,
		messageField: cfg.messageField,
		resultsField: cfg.resultsField,
		maxFailures:  cfg.maxFailures,
		page:         page.Multi(cfg.pages...),
		logger:       logger,
		callbacks:    cfg.batchCallbacks,
		client:       poller.NewClient(),
		cursor:       cfg.startCursor,
	}, nil
}

// Submit posts f to the submit endpoint and, once the backend accepted it,
// starts polling for results from an empty list.
//
// Before the request is sent any running poll loop is stopped, the status
// line shows [SubmittingStatus], the entries are cleared and the input is
// hidden. On success the status line is replaced by the backend's message,
// verbatim.
//
// If the request fails (transport error, non-2xx status, invalid JSON) the
// error is returned, the status line keeps showing [SubmittingStatus] and
// no polling starts.
//
// ctx bounds the submit request only; polling continues after ctx is done
// until [Watcher.Stop], [Watcher.Close] or the next Submit.
//
// Returns [ErrSubmitInFlight] if another Submit has not returned yet and
// [ErrClosed] after Close.
func (w *Watcher) Submit(ctx context.Context, f *form.Form) (Submission, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if f == nil {
		f = form.New()
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Submission{}, ErrClosed
	}
	if w.submitting {
		w.mu.Unlock()
		return Submission{}, ErrSubmitInFlight
	}
	w.submitting = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()

	// the previous loop must not append after the list was cleared
	w.stopRun()

	w.render("set status", w.page.SetStatus(SubmittingStatus))
	w.render("reset", w.page.Reset())
	w.render("hide input", w.page.HideInput())

	w.mu.Lock()
	w.cursor = 0
	w.mu.Unlock()

	sub, err := w.post(ctx, f)
	if err != nil {
		w.logger.Error("submission failed", "url", w.submitURL, "submission_id", sub.ID, "error", err)
		return Submission{}, err
	}

	w.render("set status", w.page.SetStatus(sub.Message))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Submission{}, ErrClosed
	}
	w.startRunLocked(context.Background(), 0)

	w.logger.Info("submission accepted", "submission_id", sub.ID, "message", sub.Message)
	return sub, nil
}

// post sends the encoded form and extracts the status message.
func (w *Watcher) post(ctx context.Context, f *form.Form) (Submission, error) {
	sub := Submission{ID: uuid.NewString()}

	body, contentType, err := f.Encode()
	if err != nil {
		return sub, fmt.Errorf("encode form: %w", err)
	}

	headers := make(map[string]string, len(w.headers)+1)
	for k, v := range w.headers {
		headers[k] = v
	}
	headers[SubmissionIDHeader] = sub.ID

	resp := w.client.PostMultipart(ctx, w.submitURL, body, contentType, headers, w.timeout)
	if err := resp.Err(); err != nil {
		return sub, fmt.Errorf("submit to %s: %w", w.submitURL, err)
	}

	msg, err := poller.ExtractString(resp.Body, w.messageField)
	switch {
	case errors.Is(err, poller.ErrFieldNotFound):
		w.logger.Warn("submit response has no message", "field", w.messageField, "submission_id", sub.ID)
	case err != nil:
		return sub, fmt.Errorf("decode submit response: %w", err)
	}

	sub.Message = msg
	sub.SubmittedAt = time.Now()
	return sub, nil
}

// Watch starts polling without submitting anything, continuing from the
// current cursor. The loop ends when ctx is done or on Stop or Close.
//
// Watch does not touch the pages before the first poll. Calling Watch while
// already polling is a no-op.
func (w *Watcher) Watch(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.closed:
		return ErrClosed
	case w.submitting:
		return ErrSubmitInFlight
	case w.state == StatePolling:
		return nil
	}

	w.startRunLocked(ctx, w.cursor)
	return nil
}

// Stop halts polling and waits until the last batch was applied.
//
// No request is issued and no entry is appended after Stop returns. Stop is
// idempotent and may be called from a batch callback.
func (w *Watcher) Stop() {
	w.stopRun()
}

// Close stops polling and releases idle connections. The Watcher cannot be
// used afterwards. Close is idempotent and always returns nil.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.stopRun()
	w.client.Close()

	w.mu.Lock()
	w.state = StateStopped
	w.mu.Unlock()
	return nil
}

// Wait blocks until the current poll loop ends or ctx is done.
//
// It returns the loop's terminal error, which is [ErrTooManyFailures] when
// polling gave up and nil when it was stopped. If nothing is polling Wait
// returns nil immediately.
func (w *Watcher) Wait(ctx context.Context) error {
	w.mu.Lock()
	r := w.current
	w.mu.Unlock()

	if r == nil {
		return nil
	}

	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current polling state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Cursor returns the number of result entries consumed so far.
func (w *Watcher) Cursor() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

// startRunLocked starts a poll loop from cursor. w.mu must be held.
func (w *Watcher) startRunLocked(ctx context.Context, cursor int) {
	loop := poller.NewLoop(poller.LoopConfig{
		URL:          w.resultsURL,
		Headers:      w.headers,
		Interval:     w.interval,
		Timeout:      w.timeout,
		ResultsField: w.resultsField,
		MaxFailures:  w.maxFailures,
		Cursor:       cursor,
	}, w.client, w.logger)

	r := &run{loop: loop, done: make(chan struct{})}
	w.current = r
	w.cursor = cursor
	w.state = StatePolling

	loop.Start(ctx)
	go w.consume(r)

	w.logger.Info("polling started", "url", w.resultsURL, "interval", w.interval.String(), "cursor", cursor)
}

// stopRun stops the current loop, if any, and waits for its consumer.
//
// While batch callbacks are running the consumer is not waited for: the
// call may come from a callback itself, and the batch being dispatched was
// already applied. The consumer applies nothing once stopping is set.
func (w *Watcher) stopRun() {
	w.mu.Lock()
	r := w.current
	w.mu.Unlock()

	if r == nil {
		return
	}
	r.stopping.Store(true)
	r.loop.Stop()

	w.mu.Lock()
	if w.current == r && w.state == StatePolling {
		w.state = StateStopped
	}
	w.mu.Unlock()

	// stopping is stored before dispatching is read, and consume clears
	// dispatching before reading stopping, so one side always sees the other
	if r.dispatching.Load() {
		return
	}
	<-r.done
}

// consume applies batches to the pages in order until the loop ends.
func (w *Watcher) consume(r *run) {
	for b := range r.loop.Batches() {
		if r.stopping.Load() {
			continue
		}
		w.apply(r, b)
	}

	r.err = r.loop.Err()

	w.mu.Lock()
	if w.current == r && w.state == StatePolling {
		w.state = StateStopped
	}
	w.mu.Unlock()

	if r.err != nil {
		w.logger.Error("polling ended", "error", r.err)
	} else {
		w.logger.Info("polling stopped")
	}
	close(r.done)
}

func (w *Watcher) apply(r *run, b poller.Batch) {
	logAttrs := []any{
		"status_code", b.StatusCode,
		"latency_ms", b.Latency.Milliseconds(),
		"cursor", b.Cursor,
	}

	if b.Err != nil {
		w.logger.Warn("poll failed", append(logAttrs, "failures", b.Failures, "error", b.Err.Error())...)
	} else {
		if len(b.Entries) > 0 {
			w.render("append", w.page.Append(b.Entries...))
		}
		w.mu.Lock()
		w.cursor = b.Cursor
		w.mu.Unlock()
		w.logger.Debug("poll completed", append(logAttrs, "new", len(b.Entries), "total", b.Total)...)
	}

	if len(w.callbacks) == 0 {
		return
	}
	public := fromPollerBatch(b)
	r.dispatching.Store(true)
	defer r.dispatching.Store(false)
	for _, cb := range w.callbacks {
		invokeCallbackSafe(cb, public, w.logger)
	}
}

// render logs a page error. A failing page never stops the watcher.
func (w *Watcher) render(op string, err error) {
	if err != nil {
		w.logger.Warn("page update failed", "op", op, "error", err)
	}
}

// invokeCallbackSafe calls a batch callback with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func invokeCallbackSafe(cb func(Batch), b Batch, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("batch callback panicked",
				"panic", r,
				"correlation_id", uuid.NewString(),
				"cursor", b.Cursor,
			)
		}
	}()
	cb(b)
}
