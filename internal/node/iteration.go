package node

import (
	"fmt"

	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Iteration walks a collection variable element by element using a
// hidden per-instance counter, writing each element to ItemVar and
// jumping to Body until the collection is exhausted, then jumps to Next
// (spec.md §4.3). A non-array collection is treated as empty.
type Iteration struct {
	CollectionVar string
	ItemVar       string
	Body          *int
	Next          *int
}

func (n *Iteration) Execute(nc *Context, t task.Task, sc *syscall.Syscall) error {
	idxKey := fmt.Sprintf("__iter_idx_%d", t.NodeIndex)

	idx := 0
	if v, ok, err := nc.Store.GetVar(nc.Ctx, nc.InstanceID, idxKey); err != nil {
		return err
	} else if ok {
		idx = toInt(v)
	}

	collVal, ok, err := nc.Store.GetVar(nc.Ctx, nc.InstanceID, n.CollectionVar)
	if err != nil {
		return err
	}
	collection, isArray := collVal.([]interface{})
	if !ok || !isArray || idx >= len(collection) {
		if n.Next != nil {
			sc.Jump(*n.Next)
		}
		return nil
	}

	if err := nc.Store.SetVar(nc.Ctx, nc.InstanceID, n.ItemVar, collection[idx]); err != nil {
		return err
	}
	if err := nc.Store.SetVar(nc.Ctx, nc.InstanceID, idxKey, idx+1); err != nil {
		return err
	}
	if n.Body != nil {
		sc.Jump(*n.Body)
	}
	return nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
