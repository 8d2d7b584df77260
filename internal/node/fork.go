package node

import (
	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Fork requests one follow-up task per target (spec.md §4.3).
type Fork struct {
	Targets []int
}

func (n *Fork) Execute(_ *Context, _ task.Task, sc *syscall.Syscall) error {
	sc.Fork(n.Targets)
	return nil
}
