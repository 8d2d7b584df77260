package node

import (
	"fmt"
	"strings"

	"github.com/lyzr/skript/internal/dsl"
	"github.com/lyzr/skript/internal/evaluator"
	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Assign writes assignments, then optionally evaluates an expression,
// then falls back to a literal value (spec.md §4.3). When Output is set,
// Execute writes the implicit result there; the catalog's "assign"
// definition never sets Output, so only an Assign constructed directly
// has one.
type Assign struct {
	Evaluator   *evaluator.Evaluator
	Assignments []dsl.Assignment
	Expression  string
	Value       interface{}
	Output      string
	Next        *int
}

func (a *Assign) Execute(nc *Context, _ task.Task, sc *syscall.Syscall) error {
	result, err := a.apply(nc)
	if err != nil {
		return err
	}
	if a.Output != "" {
		if err := nc.Store.SetVar(nc.Ctx, nc.InstanceID, a.Output, result); err != nil {
			return fmt.Errorf("writing output variable %q: %w", a.Output, err)
		}
	}
	if a.Next != nil {
		sc.Jump(*a.Next)
	}
	return nil
}

// apply performs the (a)/(b)/(c) evaluation order and returns the node's
// implicit result value.
func (a *Assign) apply(nc *Context) (interface{}, error) {
	for _, asg := range a.Assignments {
		if err := nc.Store.SetVar(nc.Ctx, nc.InstanceID, asg.Key, asg.Value); err != nil {
			return nil, fmt.Errorf("assigning %q: %w", asg.Key, err)
		}
	}

	if a.Expression != "" {
		assignee, rhs := splitAssignExpr(a.Expression)
		vars, err := nc.Store.GetAllVars(nc.Ctx, nc.InstanceID)
		if err != nil {
			return nil, fmt.Errorf("reading variables: %w", err)
		}
		val, err := a.Evaluator.Eval(rhs, vars)
		if err != nil {
			return nil, fmt.Errorf("evaluating expression %q: %w", rhs, err)
		}
		if assignee == "" {
			return val, nil
		}
		if err := nc.Store.SetVar(nc.Ctx, nc.InstanceID, assignee, val); err != nil {
			return nil, fmt.Errorf("assigning %q: %w", assignee, err)
		}
	}

	if a.Value != nil {
		return a.Value, nil
	}
	return nil, nil
}

// splitAssignExpr splits on the first "=" into an optional assignee name
// and the right-hand-side expression. If the left side isn't a bare
// identifier, the first "=" begins "==", or there's no "=", the whole
// string is treated as the RHS.
func splitAssignExpr(expr string) (assignee, rhs string) {
	idx := strings.Index(expr, "=")
	if idx < 0 {
		return "", expr
	}
	if idx+1 < len(expr) && expr[idx+1] == '=' {
		return "", expr
	}
	left := strings.TrimSpace(expr[:idx])
	right := strings.TrimSpace(expr[idx+1:])
	if isIdentifier(left) {
		return left, right
	}
	return "", expr
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}
