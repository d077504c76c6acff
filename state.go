package resultwatch

// State is the polling state of a [Watcher].
type State int

const (
	// StateIdle means nothing was submitted or watched yet.
	StateIdle State = iota

	// StatePolling means the results endpoint is being polled.
	StatePolling

	// StateStopped means polling ended, through Stop, Close, a cancelled
	// watch context or too many failures.
	StateStopped
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
