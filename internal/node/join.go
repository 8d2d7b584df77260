package node

import (
	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Join atomically decrements the instance's join counter for this node.
// The token that drives the counter to zero proceeds via jump(next); all
// other arriving tokens issue wait() and are dropped (spec.md §4.3).
type Join struct {
	ExpectCount int
	Next        *int
}

func (n *Join) Execute(nc *Context, t task.Task, sc *syscall.Syscall) error {
	remaining, err := nc.Store.DecrementJoinCount(nc.Ctx, nc.InstanceID, t.NodeIndex, n.ExpectCount)
	if err != nil {
		return err
	}

	if remaining == 0 {
		if n.Next != nil {
			sc.Jump(*n.Next)
		}
		return nil
	}

	sc.Wait()
	return nil
}
