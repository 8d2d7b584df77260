package node

import (
	"fmt"

	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// WorkflowOutputVar is the reserved variable End copies its output
// variable's value into.
const WorkflowOutputVar = "_WORKFLOW_OUTPUT"

// End copies its output variable (if any) to the reserved
// _WORKFLOW_OUTPUT variable, then terminates the token (spec.md §4.3).
type End struct {
	Output string
}

func (e *End) Execute(nc *Context, _ task.Task, sc *syscall.Syscall) error {
	if e.Output != "" {
		val, ok, err := nc.Store.GetVar(nc.Ctx, nc.InstanceID, e.Output)
		if err != nil {
			return fmt.Errorf("reading output variable %q: %w", e.Output, err)
		}
		if ok {
			if err := nc.Store.SetVar(nc.Ctx, nc.InstanceID, WorkflowOutputVar, val); err != nil {
				return fmt.Errorf("writing %s: %w", WorkflowOutputVar, err)
			}
		}
	}
	sc.Terminate()
	return nil
}
