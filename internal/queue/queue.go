// Package queue defines the task-queue abstraction workers pop from and
// push to (spec.md §4.6). memory.go is the in-process channel-backed
// implementation; redis.go is the remote, multi-process implementation.
package queue

import (
	"context"

	"github.com/lyzr/skript/internal/task"
)

// PopResult distinguishes an empty-on-timeout pop (retry) from a
// queue-closed pop (exit).
type PopResult int

const (
	// PopOK means Task is valid.
	PopOK PopResult = iota
	// PopEmpty means the pop timed out with nothing available; the
	// worker should try again.
	PopEmpty
	// PopClosed means the queue has been closed; the worker should exit.
	PopClosed
)

// TaskQueue is a FIFO-per-producer queue of tasks. pop may block up to an
// implementation-defined timeout and return PopEmpty on timeout.
type TaskQueue interface {
	Push(ctx context.Context, t task.Task) error
	Pop(ctx context.Context) (task.Task, PopResult, error)
	// Close stops the queue. Memory's Pop still returns tasks queued before
	// Close, then PopClosed; Redis's Close is a no-op and its Pop never
	// reports PopClosed.
	Close() error
}
