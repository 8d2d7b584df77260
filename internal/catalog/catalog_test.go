package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/skript/internal/actions"
	"github.com/lyzr/skript/internal/blueprint"
	"github.com/lyzr/skript/internal/evaluator"
	"github.com/lyzr/skript/internal/mode"
	"github.com/lyzr/skript/internal/node"
)

func newTestCatalog() *Catalog {
	reg := actions.NewRegistry()
	reg.Register(actions.NewLogHandler())
	reg.Register(actions.NewSleepHandler())
	return New(reg, evaluator.New(), nil)
}

func TestCatalogResolvesBuiltins(t *testing.T) {
	c := newTestCatalog()
	for _, kind := range []string{"start", "end", "assign", "if", "iteration", "loop", "fork", "join", "fused"} {
		d, err := c.Get(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, d.Name())
		assert.Equal(t, mode.Sync, d.Mode())
	}
}

func TestCatalogResolvesRegisteredAction(t *testing.T) {
	c := newTestCatalog()
	d, err := c.Get("log")
	require.NoError(t, err)
	assert.Equal(t, "log", d.Name())
	assert.Equal(t, mode.Sync, d.Mode())
}

func TestCatalogUnknownKindIsError(t *testing.T) {
	c := newTestCatalog()
	_, err := c.Get("does_not_exist")
	assert.Error(t, err)
	assert.False(t, c.IsSync("does_not_exist"))
}

func TestCatalogIsSyncReflectsHandlerMode(t *testing.T) {
	c := newTestCatalog()
	assert.True(t, c.IsSync("log"))
	assert.False(t, c.IsSync("sleep")) // sleep suspends on I/O, registered Async
}

func TestCatalogIsFusibleExcludesControlKinds(t *testing.T) {
	c := newTestCatalog()
	// All registered Sync, but none a "sync function-style operation"
	// (spec.md §4.3): Start jumps, End terminates, and the rest branch
	// on a runtime decision a Fused sub-op's discarded syscall would lose.
	for _, kind := range []string{"start", "end", "if", "iteration", "loop", "fork", "join", "fused"} {
		assert.True(t, c.IsSync(kind), kind)
		assert.False(t, c.IsFusible(kind), kind)
	}
	assert.True(t, c.IsFusible("assign"))
	assert.True(t, c.IsFusible("log"))
	assert.False(t, c.IsFusible("sleep"))
}

func TestCatalogPrepareBuildsExecutableNode(t *testing.T) {
	c := newTestCatalog()
	bn := blueprint.BlueprintNode{Kind: "assign", Params: map[string]interface{}{
		"assignments": []interface{}{},
		"next":        1,
	}}
	n, err := c.Prepare(bn)
	require.NoError(t, err)
	_, ok := n.(*node.Assign)
	assert.True(t, ok)
}

func TestCatalogPrepareFunctionStripsControlFlowParams(t *testing.T) {
	c := newTestCatalog()
	bn := blueprint.BlueprintNode{Kind: "log", Params: map[string]interface{}{
		"msg":    "hello",
		"output": "out",
		"next":   2,
	}}
	n, err := c.Prepare(bn)
	require.NoError(t, err)

	fn, ok := n.(*node.Function)
	require.True(t, ok)
	assert.Equal(t, "hello", fn.Params["msg"])
	_, hasOutput := fn.Params["output"]
	_, hasNext := fn.Params["next"]
	assert.False(t, hasOutput)
	assert.False(t, hasNext)
	assert.Equal(t, "out", fn.Output)
}

func TestCatalogIfValidateRequiresBranches(t *testing.T) {
	c := newTestCatalog()
	d, err := c.Get("if")
	require.NoError(t, err)
	assert.Error(t, d.Validate(map[string]interface{}{}))
	assert.NoError(t, d.Validate(map[string]interface{}{"branches": []blueprint.Branch{}}))
}

func TestCatalogFusedRejectsAsyncSubOp(t *testing.T) {
	c := newTestCatalog()
	bn := blueprint.BlueprintNode{Kind: "fused", Params: map[string]interface{}{
		"ops": []blueprint.FusedOp{
			{Kind: "sleep", Params: map[string]interface{}{}},
		},
	}}
	_, err := c.Prepare(bn)
	assert.Error(t, err)
}

func TestCatalogFusedPreparesSyncChain(t *testing.T) {
	c := newTestCatalog()
	bn := blueprint.BlueprintNode{Kind: "fused", Params: map[string]interface{}{
		"ops": []blueprint.FusedOp{
			{Kind: "assign", Params: map[string]interface{}{
				"assignments": []interface{}{},
				"next":        99,
			}},
			{Kind: "log", Params: map[string]interface{}{"msg": "x"}},
		},
		"next": 5,
	}}
	n, err := c.Prepare(bn)
	require.NoError(t, err)
	fused, ok := n.(*node.Fused)
	require.True(t, ok)
	assert.Len(t, fused.Ops, 2)
	require.NotNil(t, fused.Next)
	assert.Equal(t, 5, *fused.Next)
}
