package node

import (
	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Node is one prepared, executable blueprint node. Execute may read and
// mutate context variables and issue a small, bounded number of syscalls;
// the scheduler consults sc after Execute returns to decide what follow-up
// tasks to enqueue.
type Node interface {
	Execute(nc *Context, t task.Task, sc *syscall.Syscall) error
}
