package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// decrementJoinScript is the server-side atomic compare-and-mutate used by
// DecrementJoinCount. It mirrors the original implementation's Lua script
// exactly: absent counter initializes at init-1 (returning 0 immediately if
// that's already zero); otherwise decrements the existing value, deleting
// the field once it reaches zero or below.
var decrementJoinScript = redis.NewScript(`
local key = KEYS[1]
local field = ARGV[2]
local init = tonumber(ARGV[1])

local current = redis.call("HGET", key, field)
if current == false then
    local val = init - 1
    if val == 0 then
        return 0
    else
        redis.call("HSET", key, field, val)
        return val
    end
else
    local val = tonumber(current) - 1
    if val <= 0 then
        redis.call("HDEL", key, field)
        return 0
    else
        redis.call("HSET", key, field, val)
        return val
    end
end
`)

// Redis is the remote, multi-process StateStore backing the cmd/skript
// worker and submit subcommands. Variables live in a hash per instance; join counters live
// in a parallel hash per instance; the decrement is a single round-trip
// Lua script, exactly as spec.md §6's "Remote state and queue layout"
// requires.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing go-redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func varsKey(instanceID string) string  { return fmt.Sprintf("skript:inst:%s:vars", instanceID) }
func joinsKey(instanceID string) string { return fmt.Sprintf("skript:inst:%s:joins", instanceID) }

func (r *Redis) GetVar(ctx context.Context, instanceID, key string) (interface{}, bool, error) {
	raw, err := r.client.HGet(ctx, varsKey(instanceID), key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("HGET %s %s: %w", varsKey(instanceID), key, err)
	}
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false, fmt.Errorf("decoding variable %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) SetVar(ctx context.Context, instanceID, key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding variable %s: %w", key, err)
	}
	if err := r.client.HSet(ctx, varsKey(instanceID), key, encoded).Err(); err != nil {
		return fmt.Errorf("HSET %s %s: %w", varsKey(instanceID), key, err)
	}
	return nil
}

func (r *Redis) InitInstance(ctx context.Context, instanceID string, initial map[string]interface{}) error {
	if len(initial) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(initial))
	for k, v := range initial {
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding initial variable %s: %w", k, err)
		}
		fields[k] = encoded
	}
	if err := r.client.HSet(ctx, varsKey(instanceID), fields).Err(); err != nil {
		return fmt.Errorf("HSET %s: %w", varsKey(instanceID), err)
	}
	return nil
}

func (r *Redis) GetAllVars(ctx context.Context, instanceID string) (map[string]interface{}, error) {
	raw, err := r.client.HGetAll(ctx, varsKey(instanceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("HGETALL %s: %w", varsKey(instanceID), err)
	}
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		var value interface{}
		if err := json.Unmarshal([]byte(v), &value); err != nil {
			// Skip fields that fail to decode rather than failing the
			// whole snapshot — matches the original's tolerant behavior.
			continue
		}
		out[k] = value
	}
	return out, nil
}

func (r *Redis) DecrementJoinCount(ctx context.Context, instanceID string, nodeIndex int, initialCount int) (int, error) {
	result, err := decrementJoinScript.Run(ctx, r.client,
		[]string{joinsKey(instanceID)},
		initialCount, strconv.Itoa(nodeIndex),
	).Result()
	if err != nil {
		return 0, fmt.Errorf("join decrement script: %w", err)
	}
	val, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("join decrement script: unexpected result type %T", result)
	}
	return int(val), nil
}
