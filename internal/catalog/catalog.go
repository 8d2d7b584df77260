// Package catalog maps blueprint-node kind strings to definitions that
// validate and prepare executable internal/node objects, and classifies
// each kind as Sync or Async for the optimizer's fusion pass
// (spec.md §4.2, §4.3).
package catalog

import (
	"fmt"

	"github.com/lyzr/skript/internal/actions"
	"github.com/lyzr/skript/internal/blueprint"
	"github.com/lyzr/skript/internal/evaluator"
	"github.com/lyzr/skript/internal/logger"
	"github.com/lyzr/skript/internal/mode"
	"github.com/lyzr/skript/internal/node"
)

// Definition is a factory for one blueprint-node kind.
type Definition interface {
	Name() string
	Mode() mode.Mode
	Validate(params map[string]interface{}) error
	Prepare(params map[string]interface{}) (node.Node, error)
}

// Catalog resolves blueprint-node kinds to Definitions. Built-in control
// kinds (start, end, assign, if, iteration, loop, fork, join) are
// registered fixed; any other kind is resolved against the action
// registry at Get time, so user-registered operations need no separate
// registration step here.
type Catalog struct {
	builtins  map[string]Definition
	actions   *actions.Registry
	evaluator *evaluator.Evaluator
	log       *logger.Logger
}

// New builds a Catalog over the given action registry and evaluator.
func New(registry *actions.Registry, eval *evaluator.Evaluator, log *logger.Logger) *Catalog {
	if log == nil {
		log = logger.Nop()
	}
	c := &Catalog{
		builtins:  map[string]Definition{},
		actions:   registry,
		evaluator: eval,
		log:       log,
	}
	for _, d := range []Definition{
		startDefinition{},
		endDefinition{},
		&assignDefinition{evaluator: eval},
		&ifDefinition{evaluator: eval, log: log},
		iterationDefinition{},
		&loopDefinition{evaluator: eval},
		forkDefinition{},
		joinDefinition{},
		&fusedDefinition{c: c},
	} {
		c.builtins[d.Name()] = d
	}
	return c
}

// Get resolves a blueprint-node kind to its Definition: a fixed builtin,
// or a Function-style wrapper over a registered action.Handler.
func (c *Catalog) Get(kind string) (Definition, error) {
	if d, ok := c.builtins[kind]; ok {
		return d, nil
	}
	handler, ok := c.actions.Get(kind)
	if !ok {
		return nil, &actions.ErrUnknownHandler{Name: kind}
	}
	return &functionDefinition{handler: handler}, nil
}

// IsSync reports whether a kind is registered Sync (as opposed to Async)
// in this catalog.
func (c *Catalog) IsSync(kind string) bool {
	d, err := c.Get(kind)
	if err != nil {
		return false
	}
	return d.Mode() == mode.Sync
}

// controlKinds are the built-in kinds that are never a "sync
// function-style operation" (spec.md §4.3's definition of a Fused
// sub-op), so none may join a fusion chain even though they're all
// registered Sync: If and Loop branch on a runtime condition, Iteration
// branches on collection exhaustion, Fork has more than one target,
// Join's progression depends on a runtime decrement racing other
// tokens, Start issues a jump, and End issues a terminate — and §4.2
// forbids fusing any kind whose operation inspects or drives scheduler
// state (jump/fork/wait/terminate) mid-chain.
var controlKinds = map[string]bool{
	"start":     true,
	"end":       true,
	"if":        true,
	"iteration": true,
	"loop":      true,
	"fork":      true,
	"join":      true,
	"fused":     true,
}

// IsFusible reports whether a kind may participate in the optimizer's
// chain fusion (spec.md §4.2): registered Sync, and not one of the
// control kinds whose next node depends on a runtime decision rather
// than an unconditional jump.
func (c *Catalog) IsFusible(kind string) bool {
	return c.IsSync(kind) && !controlKinds[kind]
}

// Prepare builds the executable node.Node for one blueprint node, eagerly
// validating and constructing it (spec.md §4.3's registration-time
// preparation contract).
func (c *Catalog) Prepare(bn blueprint.BlueprintNode) (node.Node, error) {
	d, err := c.Get(bn.Kind)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(bn.Params); err != nil {
		return nil, fmt.Errorf("kind %q: %w", bn.Kind, err)
	}
	return d.Prepare(bn.Params)
}
