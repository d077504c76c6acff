package resultwatch

import (
	"errors"

	"github.com/jpalmerr/resultwatch/internal/poller"
)

var (
	// ErrSubmitInFlight is returned by [Watcher.Submit] and [Watcher.Watch]
	// while another submission has not finished yet.
	ErrSubmitInFlight = errors.New("a submission is already in flight")

	// ErrClosed is returned by every operation on a closed [Watcher].
	ErrClosed = errors.New("watcher closed")

	// ErrTooManyFailures is returned by [Watcher.Wait] when polling gave up
	// after the configured number of consecutive failures.
	ErrTooManyFailures = poller.ErrTooManyFailures
)

// StatusError reports a backend response whose status code is not 2xx.
// Use [errors.As] to inspect the code and the (truncated) body.
type StatusError = poller.StatusError
