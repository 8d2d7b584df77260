package queue

import (
	"context"
	"sync"

	"github.com/lyzr/skript/internal/task"
)

// Memory is the in-process TaskQueue: a buffered channel shared by every
// worker goroutine in the process, grounded in the original implementation's
// mpsc-channel-backed InMemoryTaskQueue.
type Memory struct {
	ch        chan task.Task
	closeOnce sync.Once
	closed    chan struct{}
}

// NewMemory returns a queue buffering up to capacity tasks before Push
// blocks.
func NewMemory(capacity int) *Memory {
	return &Memory{
		ch:     make(chan task.Task, capacity),
		closed: make(chan struct{}),
	}
}

func (m *Memory) Push(ctx context.Context, t task.Task) error {
	select {
	case m.ch <- t:
		return nil
	case <-m.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) Pop(ctx context.Context) (task.Task, PopResult, error) {
	select {
	case t, ok := <-m.ch:
		if !ok {
			return task.Task{}, PopClosed, nil
		}
		return t, PopOK, nil
	case <-m.closed:
		// Drain whatever was already queued before reporting closed.
		select {
		case t := <-m.ch:
			return t, PopOK, nil
		default:
			return task.Task{}, PopClosed, nil
		}
	case <-ctx.Done():
		return task.Task{}, PopEmpty, ctx.Err()
	}
}

func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}
