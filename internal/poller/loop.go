package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrTooManyFailures is the terminal error of a [Loop] that hit its
// consecutive failure limit.
var ErrTooManyFailures = errors.New("too many consecutive poll failures")

// Batch holds the outcome of one poll of the results endpoint.
type Batch struct {
	// Entries are the results not seen before this poll, in server order.
	// Empty when nothing new arrived or the poll failed.
	Entries []string

	// Cursor is the number of entries consumed after this poll.
	Cursor int

	// Total is the length of the cumulative list the server returned.
	// Zero when the poll failed.
	Total int

	// StatusCode is the HTTP status code of the response, zero on transport errors.
	StatusCode int

	// Latency is the time taken by the request.
	Latency time.Duration

	// PolledAt is when the response was processed.
	PolledAt time.Time

	// Err is non-nil when the poll failed (transport, status or decoding).
	Err error

	// Failures counts consecutive failed polls including this one.
	Failures int
}

// LoopConfig contains what a [Loop] needs to poll one results endpoint.
type LoopConfig struct {
	// URL is the results endpoint.
	URL string

	// Headers are sent with every request.
	Headers map[string]string

	// Interval is the delay between processing a response and the next request.
	Interval time.Duration

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// ResultsField is the dot path of the results array in the response.
	ResultsField string

	// MaxFailures ends the loop after that many consecutive failed polls.
	// Zero means never give up.
	MaxFailures int

	// Cursor is the number of entries already consumed before the first poll.
	Cursor int
}

// Loop repeatedly polls a cumulative results endpoint and emits the entries
// it has not seen yet.
//
// The first poll happens as soon as the loop starts. Each following poll is
// scheduled Interval after the previous response was processed, so requests
// never overlap. The cursor is explicit and owned by the loop; it only moves
// forward on successful polls.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Loop struct {
	cfg        LoopConfig
	client     *Client
	ownsClient bool
	batches    chan Batch
	logger     *slog.Logger
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	cursor    int
	err       error
	closeOnce sync.Once
}

// NewLoop creates a new [Loop]. A nil client gets a fresh [Client] that is
// closed by [Loop.Stop]; a shared client is left open.
//
// The loop must be started with [Loop.Start] and stopped with [Loop.Stop].
// Batches are available via [Loop.Batches].
func NewLoop(cfg LoopConfig, client *Client, logger *slog.Logger) *Loop {
	ownsClient := client == nil
	if ownsClient {
		client = NewClient()
	}
	if cfg.ResultsField == "" {
		cfg.ResultsField = "results"
	}
	if cfg.Cursor < 0 {
		cfg.Cursor = 0
	}
	return &Loop{
		cfg:        cfg,
		client:     client,
		ownsClient: ownsClient,
		batches:    make(chan Batch),
		logger:     logger,
		cursor:     cfg.Cursor,
	}
}

// Batches returns a receive-only channel that emits one [Batch] per poll.
//
// The channel is closed when the loop ends. Consumers should read until it
// is closed; the loop does not poll again until its batch was received.
func (l *Loop) Batches() <-chan Batch {
	return l.batches
}

// Cursor returns the number of entries consumed so far.
func (l *Loop) Cursor() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// Err returns why the loop ended on its own, or nil if it is still running
// or was stopped.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Start begins the polling loop in a background goroutine.
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started || l.stopped {
		l.mu.Unlock()
		return
	}
	l.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer l.closeOnce.Do(func() { close(l.batches) })
		l.run(pollCtx)
	}()
}

// Stop halts the loop and waits for it to exit.
//
// An in-flight request is cancelled and its outcome discarded; no poll is
// issued after Stop returns. Stop is idempotent and safe to call before Start.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.stopped {
		l.stopped = true
		if l.cancel != nil {
			l.cancel()
		}
	}
	l.mu.Unlock()

	l.wg.Wait()

	if l.ownsClient {
		l.client.Close()
	}

	// ensure channel is closed even if Start() was never called
	l.closeOnce.Do(func() { close(l.batches) })
}

func (l *Loop) run(ctx context.Context) {
	failures := 0
	for {
		// not polling anymore: no request, no reschedule
		if ctx.Err() != nil {
			return
		}

		batch := l.poll(ctx)
		if ctx.Err() != nil {
			return
		}

		if batch.Err != nil {
			failures++
		} else {
			failures = 0
		}
		batch.Failures = failures

		select {
		case l.batches <- batch:
		case <-ctx.Done():
			return
		}

		// commit only once the batch was handed over
		if batch.Err == nil {
			l.mu.Lock()
			l.cursor = batch.Cursor
			l.mu.Unlock()
		}

		if l.cfg.MaxFailures > 0 && failures >= l.cfg.MaxFailures {
			l.mu.Lock()
			l.err = fmt.Errorf("%w (%d): %v", ErrTooManyFailures, failures, batch.Err)
			l.mu.Unlock()
			l.logger.Error("polling stopped", "failures", failures, "error", batch.Err)
			return
		}

		timer := time.NewTimer(l.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// poll fetches the results once. The returned Cursor is where the cursor
// moves if the batch is delivered.
func (l *Loop) poll(ctx context.Context) Batch {
	resp := l.client.Fetch(ctx, "", l.cfg.URL, nil, l.cfg.Headers, l.cfg.Timeout)
	cursor := l.Cursor()

	batch := Batch{
		Cursor:     cursor,
		StatusCode: resp.StatusCode,
		Latency:    resp.Latency,
		PolledAt:   time.Now(),
	}

	if err := resp.Err(); err != nil {
		batch.Err = err
		return batch
	}

	results, err := ExtractStrings(resp.Body, l.cfg.ResultsField)
	if err != nil {
		batch.Err = err
		return batch
	}

	batch.Total = len(results)
	if len(results) < cursor {
		l.logger.Warn("result list shrank", "cursor", cursor, "total", len(results))
	}

	batch.Entries = NewEntries(results, cursor)
	batch.Cursor = cursor + len(batch.Entries)
	return batch
}
