package page

import "sync"

// Recorder is an in-memory [Page].
//
// Recorder is safe for concurrent use, so tests may inspect it while a
// watcher is still writing to it.
type Recorder struct {
	mu          sync.RWMutex
	status      string
	items       []string
	inputHidden bool
	resets      int
}

// NewRecorder returns an empty [Recorder].
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetStatus implements [Page].
func (r *Recorder) SetStatus(text string) error {
	r.mu.Lock()
	r.status = text
	r.mu.Unlock()
	return nil
}

// Reset implements [Page].
func (r *Recorder) Reset() error {
	r.mu.Lock()
	r.items = nil
	r.resets++
	r.mu.Unlock()
	return nil
}

// HideInput implements [Page].
func (r *Recorder) HideInput() error {
	r.mu.Lock()
	r.inputHidden = true
	r.mu.Unlock()
	return nil
}

// Append implements [Page].
func (r *Recorder) Append(entries ...string) error {
	r.mu.Lock()
	r.items = append(r.items, entries...)
	r.mu.Unlock()
	return nil
}

// Status returns the current status line.
func (r *Recorder) Status() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Items returns a copy of the rendered entries.
func (r *Recorder) Items() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.items...)
}

// InputHidden reports whether HideInput was called.
func (r *Recorder) InputHidden() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inputHidden
}

// Resets returns how many times Reset was called.
func (r *Recorder) Resets() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resets
}
