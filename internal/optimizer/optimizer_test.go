package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/skript/internal/blueprint"
)

// fusibleExceptControl mirrors catalog.Catalog.IsFusible's contract
// without importing catalog: every kind is a fusion candidate except the
// control kinds whose next node depends on a runtime decision, plus
// Start (issues jump) and End (issues terminate) — neither is the "sync
// function-style operation" spec.md §4.3 defines a Fused sub-op as.
func fusibleExceptControl(kind string) bool {
	switch kind {
	case "start", "end", "if", "iteration", "loop", "fork", "join", "fused":
		return false
	default:
		return true
	}
}

func TestFuseCollapsesLinearSyncChainButNotStartOrEnd(t *testing.T) {
	bp := &blueprint.Blueprint{
		WorkflowID: "chain",
		Nodes: []blueprint.BlueprintNode{
			{Kind: "start", Params: map[string]interface{}{"next": 1}},
			{Kind: "assign", Params: map[string]interface{}{"next": 2}},
			{Kind: "assign", Params: map[string]interface{}{"next": 3}},
			{Kind: "end", Params: map[string]interface{}{}},
		},
		StartIndex: 0,
	}

	fused := Fuse(bp, fusibleExceptControl)

	require.Len(t, fused.Nodes, 3, "start and end must survive as distinct flanking nodes; only the two assigns fuse")
	assert.Equal(t, "start", fused.Nodes[0].Kind)
	assert.Equal(t, "fused", fused.Nodes[1].Kind)
	assert.Equal(t, "end", fused.Nodes[2].Kind)

	ops, ok := fused.Nodes[1].Ops()
	require.True(t, ok)
	assert.Len(t, ops, 2)

	next, hasNext := fused.Nodes[1].Next()
	require.True(t, hasNext)
	assert.Equal(t, 2, next)
}

// TestFuseScenarioSixStartAndEndFlankOneFusedMiddle is spec.md §8
// scenario 6's canonical shape: Start -> a=10 -> b=a*2 -> c=b+5 -> End
// must compile down to exactly one fused node sandwiched between Start
// and End, not a single node swallowing the whole graph.
func TestFuseScenarioSixStartAndEndFlankOneFusedMiddle(t *testing.T) {
	bp := &blueprint.Blueprint{
		WorkflowID: "scenario6",
		Nodes: []blueprint.BlueprintNode{
			{Kind: "start", Params: map[string]interface{}{"next": 1}},
			{Kind: "assign", Params: map[string]interface{}{"next": 2}},
			{Kind: "assign", Params: map[string]interface{}{"next": 3}},
			{Kind: "assign", Params: map[string]interface{}{"next": 4}},
			{Kind: "end", Params: map[string]interface{}{}},
		},
		StartIndex: 0,
	}

	fused := Fuse(bp, fusibleExceptControl)

	require.Len(t, fused.Nodes, 3)
	assert.Equal(t, "start", fused.Nodes[0].Kind)
	assert.Equal(t, "fused", fused.Nodes[1].Kind)
	assert.Equal(t, "end", fused.Nodes[2].Kind)

	ops, ok := fused.Nodes[1].Ops()
	require.True(t, ok)
	assert.Len(t, ops, 3, "the three assigns fuse into one middle node")

	startNext, ok := fused.Nodes[0].Next()
	require.True(t, ok)
	assert.Equal(t, 1, startNext, "start must still jump into the fused middle node")

	fusedNext, ok := fused.Nodes[1].Next()
	require.True(t, ok)
	assert.Equal(t, 2, fusedNext, "the fused node must still jump to end")
}

func TestFuseNeverExtendsIntoOrPastAnIfNode(t *testing.T) {
	// start -> assign -> if{branch: hi, else: lo} -> hi/lo -> end (shared)
	bp := &blueprint.Blueprint{
		Nodes: []blueprint.BlueprintNode{
			{Kind: "start", Params: map[string]interface{}{"next": 1}},
			{Kind: "assign", Params: map[string]interface{}{"next": 2}},
			{Kind: "if", Params: map[string]interface{}{
				"branches":  []blueprint.Branch{{Condition: "x", Target: 3}},
				"else_next": 4,
			}},
			{Kind: "assign", Params: map[string]interface{}{"next": 5}},
			{Kind: "assign", Params: map[string]interface{}{"next": 5}},
			{Kind: "end", Params: map[string]interface{}{}},
		},
		StartIndex: 0,
	}

	fused := Fuse(bp, fusibleExceptControl)

	var ifNode *blueprint.BlueprintNode
	for i := range fused.Nodes {
		if fused.Nodes[i].Kind == "if" {
			ifNode = &fused.Nodes[i]
		}
	}
	require.NotNil(t, ifNode, "if must survive as its own node, never absorbed into a fused chain")

	for _, n := range fused.Nodes {
		if n.Kind != "fused" {
			continue
		}
		ops, _ := n.Ops()
		for _, op := range ops {
			assert.NotEqual(t, "if", op.Kind, "if must never be a fused sub-operation")
		}
	}
}

func TestFuseNeverAbsorbsJoin(t *testing.T) {
	// Two branches into a join, then a final assign+end. The join's
	// real progression depends on a runtime decrement race, so even
	// though it has a single static "next" field it must never be
	// folded into a fused chain as a pass-through or tail member.
	bp := &blueprint.Blueprint{
		Nodes: []blueprint.BlueprintNode{
			{Kind: "start", Params: map[string]interface{}{"next": 1}},
			{Kind: "fork", Params: map[string]interface{}{"targets": []int{2, 3}, "join_target": 4}},
			{Kind: "assign", Params: map[string]interface{}{"next": 4}},
			{Kind: "assign", Params: map[string]interface{}{"next": 4}},
			{Kind: "join", Params: map[string]interface{}{"expect_count": 2, "next": 5}},
			{Kind: "end", Params: map[string]interface{}{}},
		},
		StartIndex: 0,
	}

	fused := Fuse(bp, fusibleExceptControl)

	var sawJoin bool
	for _, n := range fused.Nodes {
		if n.Kind == "join" {
			sawJoin = true
		}
		if n.Kind == "fused" {
			ops, _ := n.Ops()
			for _, op := range ops {
				assert.NotEqual(t, "join", op.Kind)
				assert.NotEqual(t, "fork", op.Kind)
			}
		}
	}
	assert.True(t, sawJoin, "join must survive as its own node")
}

func TestFuseNoOpOnEmptyBlueprint(t *testing.T) {
	bp := &blueprint.Blueprint{Nodes: nil, StartIndex: 0}
	fused := Fuse(bp, fusibleExceptControl)
	assert.Same(t, bp, fused)
}

func TestFuseRespectsAsyncBoundary(t *testing.T) {
	isFusible := func(kind string) bool { return kind != "http_call" }
	bp := &blueprint.Blueprint{
		Nodes: []blueprint.BlueprintNode{
			{Kind: "start", Params: map[string]interface{}{"next": 1}},
			{Kind: "assign", Params: map[string]interface{}{"next": 2}},
			{Kind: "http_call", Params: map[string]interface{}{"next": 3}},
			{Kind: "end", Params: map[string]interface{}{}},
		},
		StartIndex: 0,
	}
	fused := Fuse(bp, isFusible)

	for _, n := range fused.Nodes {
		if n.Kind == "fused" {
			ops, _ := n.Ops()
			for _, op := range ops {
				assert.NotEqual(t, "http_call", op.Kind)
			}
		}
	}
}

func TestFuseRemapsSurvivingTargetsAfterCollapse(t *testing.T) {
	// start -> assign -> assign -> if -> (branch) end1 / (else) end2
	bp := &blueprint.Blueprint{
		Nodes: []blueprint.BlueprintNode{
			{Kind: "start", Params: map[string]interface{}{"next": 1}},
			{Kind: "assign", Params: map[string]interface{}{"next": 2}},
			{Kind: "assign", Params: map[string]interface{}{"next": 3}},
			{Kind: "if", Params: map[string]interface{}{
				"branches":  []blueprint.Branch{{Condition: "x", Target: 4}},
				"else_next": 5,
			}},
			{Kind: "end", Params: map[string]interface{}{}},
			{Kind: "end", Params: map[string]interface{}{}},
		},
		StartIndex: 0,
	}

	fused := Fuse(bp, fusibleExceptControl)
	require.Len(t, fused.Nodes, 5) // start, fused(assign,assign), if, end, end

	var ifNode blueprint.BlueprintNode
	for _, n := range fused.Nodes {
		if n.Kind == "if" {
			ifNode = n
		}
	}
	branches, ok := ifNode.Branches()
	require.True(t, ok)
	require.Len(t, branches, 1)
	assert.Less(t, branches[0].Target, len(fused.Nodes))

	elseNext, ok := ifNode.ElseNext()
	require.True(t, ok)
	assert.Less(t, elseNext, len(fused.Nodes))
}
