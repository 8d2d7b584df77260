package node

import (
	"github.com/lyzr/skript/internal/evaluator"
	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Loop evaluates a boolean condition over current variables, jumping to
// Body on true and Next on false. Unlike Iteration, it maintains no
// implicit variable (spec.md §4.3).
type Loop struct {
	Evaluator *evaluator.Evaluator
	Condition string
	Body      *int
	Next      *int
}

func (n *Loop) Execute(nc *Context, _ task.Task, sc *syscall.Syscall) error {
	vars, err := nc.Store.GetAllVars(nc.Ctx, nc.InstanceID)
	if err != nil {
		return err
	}

	ok, err := n.Evaluator.EvalBool(n.Condition, vars)
	if err != nil {
		ok = false
	}

	if ok {
		if n.Body != nil {
			sc.Jump(*n.Body)
		}
		return nil
	}
	if n.Next != nil {
		sc.Jump(*n.Next)
	}
	return nil
}
