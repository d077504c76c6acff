package resultwatch

import (
	"time"

	"github.com/jpalmerr/resultwatch/internal/poller"
)

// Batch is the outcome of one poll of the results endpoint, as passed to
// callbacks registered with [WithBatchCallback].
type Batch struct {
	// Entries are the results not seen before, already appended to the pages.
	Entries []string

	// Cursor is the number of entries consumed after this poll.
	Cursor int

	// Total is the length of the list the backend returned.
	Total int

	// StatusCode is the HTTP status code, zero on transport errors.
	StatusCode int

	// Latency is the request round-trip time.
	Latency time.Duration

	// PolledAt is when the response was processed.
	PolledAt time.Time

	// Err is non-nil when the poll failed. Nothing was appended then.
	Err error

	// Failures counts consecutive failed polls including this one.
	Failures int
}

// Submission describes an accepted form submission.
type Submission struct {
	// ID is the value sent in the X-Submission-ID request header.
	ID string

	// Message is the status text returned by the backend, verbatim.
	Message string

	// SubmittedAt is when the backend's answer was received.
	SubmittedAt time.Time
}

// fromPollerBatch converts an internal batch to the public type.
// Entries are copied so callbacks cannot alias loop memory.
func fromPollerBatch(b poller.Batch) Batch {
	var entries []string
	if len(b.Entries) > 0 {
		entries = append([]string(nil), b.Entries...)
	}
	return Batch{
		Entries:    entries,
		Cursor:     b.Cursor,
		Total:      b.Total,
		StatusCode: b.StatusCode,
		Latency:    b.Latency,
		PolledAt:   b.PolledAt,
		Err:        b.Err,
		Failures:   b.Failures,
	}
}
