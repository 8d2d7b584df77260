package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/skript/internal/task"
)

func newTestRedisQueue(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "", 100*time.Millisecond)
}

func TestRedisQueuePushPop(t *testing.T) {
	ctx := context.Background()
	q := newTestRedisQueue(t)

	require.NoError(t, q.Push(ctx, task.Task{InstanceID: "i1", NodeIndex: 3}))

	got, res, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, PopOK, res)
	assert.Equal(t, "i1", got.InstanceID)
	assert.Equal(t, 3, got.NodeIndex)
}

func TestRedisQueuePopEmptyOnTimeout(t *testing.T) {
	q := newTestRedisQueue(t)
	_, res, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PopEmpty, res)
}

func TestRedisQueueFIFOOrder(t *testing.T) {
	ctx := context.Background()
	q := newTestRedisQueue(t)

	require.NoError(t, q.Push(ctx, task.Task{InstanceID: "first"}))
	require.NoError(t, q.Push(ctx, task.Task{InstanceID: "second"}))

	got1, _, err := q.Pop(ctx)
	require.NoError(t, err)
	got2, _, err := q.Pop(ctx)
	require.NoError(t, err)

	assert.Equal(t, "first", got1.InstanceID)
	assert.Equal(t, "second", got2.InstanceID)
}

func TestRedisQueueCloseIsNoop(t *testing.T) {
	q := newTestRedisQueue(t)
	assert.NoError(t, q.Close())
}
