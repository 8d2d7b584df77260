package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lyzr/skript/internal/task"
)

// Redis is the remote, multi-process TaskQueue: a list at a configured key,
// producers LPUSH, consumers BRPOP with a blocking timeout — exactly
// spec.md §6's normative Redis queue layout.
type Redis struct {
	client  *redis.Client
	key     string
	popWait time.Duration
}

// NewRedis wraps an existing go-redis client. key defaults to
// "skript:distributed:tasks" when empty.
func NewRedis(client *redis.Client, key string, popWait time.Duration) *Redis {
	if key == "" {
		key = "skript:distributed:tasks"
	}
	return &Redis{client: client, key: key, popWait: popWait}
}

func (r *Redis) Push(ctx context.Context, t task.Task) error {
	encoded, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding task: %w", err)
	}
	if err := r.client.LPush(ctx, r.key, encoded).Err(); err != nil {
		return fmt.Errorf("LPUSH %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Pop(ctx context.Context) (task.Task, PopResult, error) {
	result, err := r.client.BRPop(ctx, r.popWait, r.key).Result()
	if err == redis.Nil {
		return task.Task{}, PopEmpty, nil
	}
	if err != nil {
		return task.Task{}, PopEmpty, fmt.Errorf("BRPOP %s: %w", r.key, err)
	}
	// BRPOP returns [key, value].
	if len(result) != 2 {
		return task.Task{}, PopEmpty, fmt.Errorf("BRPOP %s: unexpected reply shape", r.key)
	}
	var t task.Task
	if err := json.Unmarshal([]byte(result[1]), &t); err != nil {
		return task.Task{}, PopEmpty, fmt.Errorf("decoding task: %w", err)
	}
	return t, PopOK, nil
}

// Close is a no-op: the remote queue has no in-process closed state. A
// worker stops consuming it by canceling the context passed to Pop.
func (r *Redis) Close() error {
	return nil
}
