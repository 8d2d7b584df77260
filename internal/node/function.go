package node

import (
	"fmt"

	"github.com/lyzr/skript/internal/actions"
	"github.com/lyzr/skript/internal/dsl"
	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Function resolves "${name}" placeholders in its parameters, invokes the
// registered operation by kind, writes the result to its output variable
// (if set), and jumps to next (spec.md §4.3).
type Function struct {
	Handler actions.Handler
	Params  map[string]interface{}
	Output  string
	Next    *int
}

func (f *Function) Execute(nc *Context, _ task.Task, sc *syscall.Syscall) error {
	vars, err := nc.Store.GetAllVars(nc.Ctx, nc.InstanceID)
	if err != nil {
		return fmt.Errorf("reading variables: %w", err)
	}

	resolved := dsl.ResolvePlaceholders(f.Params, vars)

	result, err := f.Handler.Execute(nc.Ctx, resolved)
	if err != nil {
		return fmt.Errorf("executing %q: %w", f.Handler.Name(), err)
	}

	if f.Output != "" {
		if err := nc.Store.SetVar(nc.Ctx, nc.InstanceID, f.Output, result); err != nil {
			return fmt.Errorf("writing output variable %q: %w", f.Output, err)
		}
	}

	if f.Next != nil {
		sc.Jump(*f.Next)
	}
	return nil
}
