package node

import (
	"github.com/lyzr/skript/internal/evaluator"
	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// IfBranch pairs a boolean condition with the target index to jump to
// when it's the first branch to evaluate true.
type IfBranch struct {
	Condition string
	Target    int
}

// If evaluates its branches in order and jumps to the first whose
// condition is true, falling back to ElseNext (spec.md §4.3). An
// evaluation error is logged and treated as false.
type If struct {
	Evaluator *evaluator.Evaluator
	Logger    interface {
		Warn(msg string, args ...any)
	}
	Branches []IfBranch
	ElseNext *int
}

func (n *If) Execute(nc *Context, _ task.Task, sc *syscall.Syscall) error {
	vars, err := nc.Store.GetAllVars(nc.Ctx, nc.InstanceID)
	if err != nil {
		return err
	}

	for _, b := range n.Branches {
		ok, err := n.Evaluator.EvalBool(b.Condition, vars)
		if err != nil {
			if n.Logger != nil {
				n.Logger.Warn("if condition evaluation failed, treating as false",
					"condition", b.Condition, "error", err)
			}
			continue
		}
		if ok {
			sc.Jump(b.Target)
			return nil
		}
	}

	if n.ElseNext != nil {
		sc.Jump(*n.ElseNext)
	}
	return nil
}
