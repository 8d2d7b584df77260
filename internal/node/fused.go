package node

import (
	"fmt"

	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Fused runs a sequence of sync sub-operations on the same context
// without a syscall between them, then jumps to Next (spec.md §4.2,
// §4.3). Each sub-op's own jump/fork/wait/terminate requests are
// discarded; only Fused's final Next governs control flow.
type Fused struct {
	Ops  []Node
	Next *int
}

func (n *Fused) Execute(nc *Context, t task.Task, sc *syscall.Syscall) error {
	for i, op := range n.Ops {
		if err := op.Execute(nc, t, syscall.Discard()); err != nil {
			return fmt.Errorf("fused sub-operation %d: %w", i, err)
		}
	}
	if n.Next != nil {
		sc.Jump(*n.Next)
	}
	return nil
}
