// Package node implements the executable node objects the engine runs:
// Start, End, Function, Assign, If, Iteration, Loop, Fork, Join, and Fused
// (spec.md §4.3), each built by internal/catalog's Prepare and cached per
// blueprint.
package node

import (
	"context"

	"github.com/lyzr/skript/internal/store"
)

// Context is the per-execution handle a node uses to read and mutate
// instance variables. It carries the stdlib context so node executions
// honor the engine's per-node timeout (spec.md §5).
type Context struct {
	Ctx        context.Context
	InstanceID string
	Store      store.StateStore
}
