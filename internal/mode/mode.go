// Package mode defines the Sync/Async execution-mode tag every node kind
// and function handler carries (spec.md §4.2, §4.3, §5).
package mode

// Mode classifies whether an operation may suspend on external I/O.
type Mode int

const (
	// Sync operations never suspend on I/O; this is what makes chain
	// fusion safe.
	Sync Mode = iota
	// Async operations may suspend (network calls, sleeps, remote store
	// round-trips).
	Async
)

func (m Mode) String() string {
	if m == Sync {
		return "sync"
	}
	return "async"
}
