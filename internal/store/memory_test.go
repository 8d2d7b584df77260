package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInitAndGetSetVar(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.InitInstance(ctx, "inst1", map[string]interface{}{"x": 1}))

	v, ok, err := m.GetVar(ctx, "inst1", "x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok, err = m.GetVar(ctx, "inst1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.SetVar(ctx, "inst1", "y", "hello"))
	v, ok, err = m.GetVar(ctx, "inst1", "y")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestMemoryGetVarUnknownInstance(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.GetVar(context.Background(), "nope", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryGetAllVars(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.InitInstance(ctx, "inst1", map[string]interface{}{"a": 1, "b": 2}))
	require.NoError(t, m.SetVar(ctx, "inst1", "c", 3))

	vars, err := m.GetAllVars(ctx, "inst1")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2, "c": 3}, vars)
}

func TestMemoryGetAllVarsUnknownInstanceIsEmpty(t *testing.T) {
	m := NewMemory()
	vars, err := m.GetAllVars(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestMemoryDecrementJoinCountSingleCaller(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	remaining, err := m.DecrementJoinCount(ctx, "inst1", 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	remaining, err = m.DecrementJoinCount(ctx, "inst1", 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	remaining, err = m.DecrementJoinCount(ctx, "inst1", 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestMemoryDecrementJoinCountConcurrentExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const n = 20
	results := make([]int, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			remaining, err := m.DecrementJoinCount(ctx, "inst1", 0, n)
			require.NoError(t, err)
			results[i] = remaining
		}(i)
	}
	wg.Wait()

	zeros := 0
	seen := map[int]bool{}
	for _, r := range results {
		if r == 0 {
			zeros++
		} else {
			assert.False(t, seen[r], "value %d returned more than once", r)
			seen[r] = true
		}
	}
	assert.Equal(t, 1, zeros, "exactly one caller should observe the counter reach zero")
}
