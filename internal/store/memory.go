package store

import (
	"sync"
	"time"
)

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage of a single page with a
// publish-subscribe mechanism for real-time updates.
//
// Subscribers receive events via buffered channels (buffer size 100). Events
// are sent non-blocking; if a subscriber's buffer is full, the event is dropped
// for that subscriber to prevent blocking the watcher. Such a subscriber can
// resynchronize with [MemoryStore.Snapshot] by comparing sequence numbers.
type MemoryStore struct {
	mu    sync.RWMutex
	state Snapshot

	subscribers map[chan Event]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] showing title.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore(title string) *MemoryStore {
	return &MemoryStore{
		state:       Snapshot{Title: title, Items: []string{}},
		subscribers: make(map[chan Event]struct{}),
	}
}

// SetStatus implements [page.Page].
func (m *MemoryStore) SetStatus(text string) error {
	m.apply(Event{Type: EventStatus, Status: text}, func(s *Snapshot) {
		s.Status = text
	})
	return nil
}

// Reset implements [page.Page].
func (m *MemoryStore) Reset() error {
	m.apply(Event{Type: EventReset}, func(s *Snapshot) {
		s.Items = []string{}
	})
	return nil
}

// HideInput implements [page.Page].
func (m *MemoryStore) HideInput() error {
	m.apply(Event{Type: EventInput}, func(s *Snapshot) {
		s.InputHidden = true
	})
	return nil
}

// Append implements [page.Page]. Appending nothing publishes nothing.
func (m *MemoryStore) Append(entries ...string) error {
	if len(entries) == 0 {
		return nil
	}
	cp := append([]string(nil), entries...)
	m.apply(Event{Type: EventAppend, Entries: cp}, func(s *Snapshot) {
		s.Items = append(s.Items, cp...)
	})
	return nil
}

// Snapshot returns the current page state.
//
// The returned Items slice is a copy; modifications do not affect the store.
func (m *MemoryStore) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.state
	snap.Items = append([]string{}, m.state.Items...)
	return snap
}

// Subscribe creates a new subscription and returns a channel for receiving events.
//
// The returned channel has a buffer of 100 events. If the buffer fills
// (slow consumer), new events are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// events will be sent. Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	// find and delete the channel (need to convert to the right type)
	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// apply mutates the page, stamps the event and fans it out. Publishing
// happens under the state lock so subscribers see events in Seq order.
func (m *MemoryStore) apply(ev Event, mutate func(*Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mutate(&m.state)
	m.state.Seq++
	ev.Seq = m.state.Seq
	ev.At = time.Now()

	m.notifySubscribers(ev)
}

// notifySubscribers sends the event to all active subscribers.
//
// This is non-blocking: if a subscriber's channel buffer is full, the event
// is dropped for that subscriber rather than blocking the update path.
func (m *MemoryStore) notifySubscribers(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// subscriber is slow, drop the event
		}
	}
}
