package store

import (
	"time"

	"github.com/jpalmerr/resultwatch/page"
)

// EventType identifies what changed on a page.
type EventType string

const (
	// EventStatus means the status line was replaced.
	EventStatus EventType = "status"

	// EventReset means every entry was removed.
	EventReset EventType = "reset"

	// EventInput means the input area was hidden.
	EventInput EventType = "input"

	// EventAppend means entries were added after the existing ones.
	EventAppend EventType = "append"
)

// Event is a single page mutation, as pushed to subscribers.
//
// Event is optimized for JSON serialization (used by the SSE stream).
// Entries and Status are raw text; clients must escape them when rendering.
type Event struct {
	// Seq increases by one for every event published by a store.
	Seq uint64 `json:"seq"`

	// Type is the kind of mutation.
	Type EventType `json:"type"`

	// Status is the new status line for EventStatus.
	Status string `json:"status,omitempty"`

	// Entries are the appended entries for EventAppend.
	Entries []string `json:"entries,omitempty"`

	// At is when the mutation was applied.
	At time.Time `json:"at"`
}

// Snapshot is the full state of a page at one point in time.
type Snapshot struct {
	// Title is the page heading.
	Title string `json:"title"`

	// Status is the current status line.
	Status string `json:"status"`

	// InputHidden reports whether the input area is hidden.
	InputHidden bool `json:"input_hidden"`

	// Items are the rendered entries in order.
	Items []string `json:"items"`

	// Seq is the sequence number of the last event applied.
	Seq uint64 `json:"seq"`
}

// Store is a [page.Page] that can be read back and observed.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows page changes to be pushed to connected browsers
// (e.g., via Server-Sent Events).
type Store interface {
	page.Page

	// Snapshot returns the current page state.
	// The returned value is a copy; modifications do not affect the store.
	Snapshot() Snapshot

	// Subscribe returns a channel that receives page events.
	// The returned channel has a buffer; slow consumers may miss events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
