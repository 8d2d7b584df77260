// Package store defines the state-store abstraction: per-instance
// variables and atomic join counters, shared by every worker (spec.md
// §4.5). memory.go is the in-process implementation; redis.go is the
// remote, multi-process implementation.
package store

import "context"

// StateStore owns per-instance variables and join counters. Every method
// must be safe for concurrent use by multiple workers.
type StateStore interface {
	// GetVar reads one variable. ok is false if the instance or key is
	// unknown.
	GetVar(ctx context.Context, instanceID, key string) (value interface{}, ok bool, err error)

	// SetVar overwrites one variable. Atomic per key.
	SetVar(ctx context.Context, instanceID, key string, value interface{}) error

	// InitInstance creates the instance record with its initial variables.
	InitInstance(ctx context.Context, instanceID string, initial map[string]interface{}) error

	// GetAllVars snapshots every variable for an instance, for expression
	// evaluators that need a full environment.
	GetAllVars(ctx context.Context, instanceID string) (map[string]interface{}, error)

	// DecrementJoinCount atomically decrements the counter at
	// (instanceID, nodeIndex), initializing it at initialCount on first
	// arrival, and returns the post-decrement value. When the value
	// reaches zero the counter entry is removed. Linearizable: for N
	// concurrent calls with the same (instanceID, nodeIndex,
	// initialCount=N), exactly one returns 0 and the rest return distinct
	// values in [1, N-1].
	DecrementJoinCount(ctx context.Context, instanceID string, nodeIndex int, initialCount int) (int, error)
}
