package store

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// Memory is the in-process StateStore: a concurrent map of instance ID to a
// concurrent variable map, plus a parallel concurrent map of instance ID to
// a concurrent join-counter map. Using xsync.MapOf (a sharded,
// lock-striped concurrent map) in place of a mutex-guarded map gives the
// same per-key atomicity the original Rust implementation gets from
// dashmap::DashMap, without a single coarse lock serializing every
// instance's variable reads and writes.
type Memory struct {
	vars  *xsync.MapOf[string, *xsync.MapOf[string, interface{}]]
	joins *xsync.MapOf[string, *xsync.MapOf[int, int]]
}

// NewMemory returns an empty in-process state store.
func NewMemory() *Memory {
	return &Memory{
		vars:  xsync.NewMapOf[string, *xsync.MapOf[string, interface{}]](),
		joins: xsync.NewMapOf[string, *xsync.MapOf[int, int]](),
	}
}

func (m *Memory) GetVar(_ context.Context, instanceID, key string) (interface{}, bool, error) {
	instanceVars, ok := m.vars.Load(instanceID)
	if !ok {
		return nil, false, nil
	}
	v, ok := instanceVars.Load(key)
	return v, ok, nil
}

func (m *Memory) SetVar(_ context.Context, instanceID, key string, value interface{}) error {
	instanceVars, _ := m.vars.LoadOrStore(instanceID, xsync.NewMapOf[string, interface{}]())
	instanceVars.Store(key, value)
	return nil
}

func (m *Memory) InitInstance(_ context.Context, instanceID string, initial map[string]interface{}) error {
	instanceVars := xsync.NewMapOf[string, interface{}]()
	for k, v := range initial {
		instanceVars.Store(k, v)
	}
	m.vars.Store(instanceID, instanceVars)
	return nil
}

func (m *Memory) GetAllVars(_ context.Context, instanceID string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	instanceVars, ok := m.vars.Load(instanceID)
	if !ok {
		return out, nil
	}
	instanceVars.Range(func(k string, v interface{}) bool {
		out[k] = v
		return true
	})
	return out, nil
}

func (m *Memory) DecrementJoinCount(_ context.Context, instanceID string, nodeIndex int, initialCount int) (int, error) {
	instanceJoins, _ := m.joins.LoadOrStore(instanceID, xsync.NewMapOf[int, int]())

	var result int
	instanceJoins.Compute(nodeIndex, func(oldValue int, loaded bool) (int, bool) {
		current := initialCount
		if loaded {
			current = oldValue
		}
		current--
		if current <= 0 {
			result = 0
			return 0, true // delete: counter reached zero
		}
		result = current
		return current, false
	})

	return result, nil
}
