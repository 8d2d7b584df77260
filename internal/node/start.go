package node

import (
	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Start issues jump(next) unconditionally (spec.md §4.3).
type Start struct {
	Next *int
}

func (s *Start) Execute(_ *Context, _ task.Task, sc *syscall.Syscall) error {
	if s.Next != nil {
		sc.Jump(*s.Next)
	}
	return nil
}
