package catalog

import (
	"fmt"

	"github.com/lyzr/skript/internal/actions"
	"github.com/lyzr/skript/internal/blueprint"
	"github.com/lyzr/skript/internal/dsl"
	"github.com/lyzr/skript/internal/evaluator"
	"github.com/lyzr/skript/internal/logger"
	"github.com/lyzr/skript/internal/mode"
	"github.com/lyzr/skript/internal/node"
)

// -- Start --

type startDefinition struct{}

func (startDefinition) Name() string    { return "start" }
func (startDefinition) Mode() mode.Mode { return mode.Sync }
func (startDefinition) Validate(map[string]interface{}) error { return nil }
func (startDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	return &node.Start{Next: optInt(params, "next")}, nil
}

// -- End --

type endDefinition struct{}

func (endDefinition) Name() string    { return "end" }
func (endDefinition) Mode() mode.Mode { return mode.Sync }
func (endDefinition) Validate(map[string]interface{}) error { return nil }
func (endDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	return &node.End{Output: optString(params, "output")}, nil
}

// -- Assign --

type assignDefinition struct {
	evaluator *evaluator.Evaluator
}

func (*assignDefinition) Name() string    { return "assign" }
func (*assignDefinition) Mode() mode.Mode { return mode.Sync }
func (*assignDefinition) Validate(map[string]interface{}) error { return nil }
func (d *assignDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	return &node.Assign{
		Evaluator:   d.evaluator,
		Assignments: optAssignments(params, "assignments"),
		Expression:  optString(params, "expression"),
		Value:       params["value"],
		Next:        optInt(params, "next"),
	}, nil
}

// -- If --

type ifDefinition struct {
	evaluator *evaluator.Evaluator
	log       *logger.Logger
}

func (*ifDefinition) Name() string    { return "if" }
func (*ifDefinition) Mode() mode.Mode { return mode.Sync }
func (*ifDefinition) Validate(params map[string]interface{}) error {
	if _, ok := params["branches"]; !ok {
		return fmt.Errorf("if node missing branches")
	}
	return nil
}
func (d *ifDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	branches, err := optBranches(params, "branches")
	if err != nil {
		return nil, err
	}
	ifBranches := make([]node.IfBranch, len(branches))
	for i, b := range branches {
		ifBranches[i] = node.IfBranch{Condition: b.Condition, Target: b.Target}
	}
	return &node.If{
		Evaluator: d.evaluator,
		Logger:    d.log,
		Branches:  ifBranches,
		ElseNext:  optInt(params, "else_next"),
	}, nil
}

// -- Iteration --

type iterationDefinition struct{}

func (iterationDefinition) Name() string    { return "iteration" }
func (iterationDefinition) Mode() mode.Mode { return mode.Sync }
func (iterationDefinition) Validate(map[string]interface{}) error { return nil }
func (iterationDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	return &node.Iteration{
		CollectionVar: optString(params, "collection"),
		ItemVar:       optString(params, "item_var"),
		Body:          optInt(params, "body"),
		Next:          optInt(params, "next"),
	}, nil
}

// -- Loop --

type loopDefinition struct {
	evaluator *evaluator.Evaluator
}

func (*loopDefinition) Name() string    { return "loop" }
func (*loopDefinition) Mode() mode.Mode { return mode.Sync }
func (*loopDefinition) Validate(map[string]interface{}) error { return nil }
func (d *loopDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	return &node.Loop{
		Evaluator: d.evaluator,
		Condition: optString(params, "condition"),
		Body:      optInt(params, "body"),
		Next:      optInt(params, "next"),
	}, nil
}

// -- Fork --

type forkDefinition struct{}

func (forkDefinition) Name() string    { return "fork" }
func (forkDefinition) Mode() mode.Mode { return mode.Sync }
func (forkDefinition) Validate(params map[string]interface{}) error {
	if _, ok := params["targets"]; !ok {
		return fmt.Errorf("fork node missing targets")
	}
	return nil
}
func (forkDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	return &node.Fork{Targets: optInts(params, "targets")}, nil
}

// -- Join --

type joinDefinition struct{}

func (joinDefinition) Name() string    { return "join" }
func (joinDefinition) Mode() mode.Mode { return mode.Sync }
func (joinDefinition) Validate(map[string]interface{}) error { return nil }
func (joinDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	count := 0
	if v := optInt(params, "expect_count"); v != nil {
		count = *v
	}
	return &node.Join{ExpectCount: count, Next: optInt(params, "next")}, nil
}

// -- Function (generic action wrapper) --

type functionDefinition struct {
	handler actions.Handler
}

func (d *functionDefinition) Name() string    { return d.handler.Name() }
func (d *functionDefinition) Mode() mode.Mode { return d.handler.Mode() }
func (*functionDefinition) Validate(map[string]interface{}) error { return nil }
func (d *functionDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	domainParams := make(map[string]interface{}, len(params))
	for k, v := range params {
		if k == "output" || k == "next" {
			continue
		}
		domainParams[k] = v
	}
	return &node.Function{
		Handler: d.handler,
		Params:  domainParams,
		Output:  optString(params, "output"),
		Next:    optInt(params, "next"),
	}, nil
}

// -- Fused --

type fusedDefinition struct {
	c *Catalog
}

func (*fusedDefinition) Name() string    { return "fused" }
func (*fusedDefinition) Mode() mode.Mode { return mode.Sync }
func (*fusedDefinition) Validate(map[string]interface{}) error { return nil }
func (d *fusedDefinition) Prepare(params map[string]interface{}) (node.Node, error) {
	ops, ok := params["ops"].([]blueprint.FusedOp)
	if !ok {
		return nil, fmt.Errorf("fused node missing ops")
	}
	prepared := make([]node.Node, 0, len(ops))
	for i, op := range ops {
		def, err := d.c.Get(op.Kind)
		if err != nil {
			return nil, fmt.Errorf("fused op %d: %w", i, err)
		}
		if def.Mode() != mode.Sync {
			return nil, fmt.Errorf("fused op %d: kind %q is not Sync", i, op.Kind)
		}
		// Sub-ops never own control flow: strip "next" so Prepare builds
		// a node that issues no jump of its own.
		subParams := make(map[string]interface{}, len(op.Params))
		for k, v := range op.Params {
			if k == "next" {
				continue
			}
			subParams[k] = v
		}
		n, err := def.Prepare(subParams)
		if err != nil {
			return nil, fmt.Errorf("fused op %d: %w", i, err)
		}
		prepared = append(prepared, n)
	}
	return &node.Fused{Ops: prepared, Next: optInt(params, "next")}, nil
}

// -- param coercion helpers --
//
// Params flow through a map[string]interface{} that may have come from a
// direct Go literal (compiler output) or a JSON round trip (Redis-backed
// remote registration), so ints may arrive as int or float64.

func optInt(params map[string]interface{}, key string) *int {
	v, ok := params[key]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case int:
		return &n
	case int64:
		i := int(n)
		return &i
	case float64:
		i := int(n)
		return &i
	}
	return nil
}

func optInts(params map[string]interface{}, key string) []int {
	v, ok := params[key]
	if !ok {
		return nil
	}
	switch vs := v.(type) {
	case []int:
		return vs
	case []interface{}:
		out := make([]int, len(vs))
		for i, e := range vs {
			if p := optInt(map[string]interface{}{"v": e}, "v"); p != nil {
				out[i] = *p
			}
		}
		return out
	}
	return nil
}

func optString(params map[string]interface{}, key string) string {
	v, ok := params[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func optAssignments(params map[string]interface{}, key string) []dsl.Assignment {
	v, ok := params[key]
	if !ok {
		return nil
	}
	if a, ok := v.([]dsl.Assignment); ok {
		return a
	}
	return nil
}

func optBranches(params map[string]interface{}, key string) ([]blueprint.Branch, error) {
	v, ok := params[key]
	if !ok {
		return nil, nil
	}
	b, ok := v.([]blueprint.Branch)
	if !ok {
		return nil, fmt.Errorf("branches has unexpected type %T", v)
	}
	return b, nil
}
