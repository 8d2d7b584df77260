// Package engine drives blueprint registration and the worker loop:
// popping tasks, preparing (and caching) executable nodes, executing them
// under a bounded timeout, and enqueueing whatever follow-up tasks their
// syscalls requested (spec.md §5, grounded on
// original_source/src/runtime/engine.rs).
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/lyzr/skript/internal/blueprint"
	"github.com/lyzr/skript/internal/catalog"
	"github.com/lyzr/skript/internal/logger"
	"github.com/lyzr/skript/internal/node"
	"github.com/lyzr/skript/internal/queue"
	"github.com/lyzr/skript/internal/store"
	"github.com/lyzr/skript/internal/syscall"
	"github.com/lyzr/skript/internal/task"
)

// Engine owns registered blueprints, their lazily-prepared executable
// node caches, and the store/queue/catalog a worker pool executes tasks
// against.
type Engine struct {
	blueprints *xsync.MapOf[string, *blueprint.Blueprint]
	executable *xsync.MapOf[string, []node.Node]
	prepareMu  sync.Mutex

	store    store.StateStore
	queue    queue.TaskQueue
	catalog  *catalog.Catalog
	log      *logger.Logger
	nodeTime time.Duration
}

// New builds an Engine over the given storage, queue, and catalog.
func New(st store.StateStore, q queue.TaskQueue, cat *catalog.Catalog, log *logger.Logger, nodeTimeout time.Duration) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if nodeTimeout <= 0 {
		nodeTimeout = 60 * time.Second
	}
	return &Engine{
		blueprints: xsync.NewMapOf[string, *blueprint.Blueprint](),
		executable: xsync.NewMapOf[string, []node.Node](),
		store:      st,
		queue:      q,
		catalog:    cat,
		log:        log,
		nodeTime:   nodeTimeout,
	}
}

// RegisterBlueprint installs (or replaces) a compiled blueprint and
// invalidates its executable-node cache.
func (e *Engine) RegisterBlueprint(bp *blueprint.Blueprint) {
	e.blueprints.Store(bp.WorkflowID, bp)
	e.executable.Delete(bp.WorkflowID)
}

// prepareBlueprint returns the cached, eagerly-built executable node list
// for a registered blueprint, building it under a lock if absent.
// Re-preparation after a concurrent cache invalidation is acceptable;
// duplicate preparation work may occur but never corrupts state
// (spec.md §5's resource-ownership contract).
func (e *Engine) prepareBlueprint(workflowID string) ([]node.Node, error) {
	if nodes, ok := e.executable.Load(workflowID); ok {
		return nodes, nil
	}

	e.prepareMu.Lock()
	defer e.prepareMu.Unlock()

	if nodes, ok := e.executable.Load(workflowID); ok {
		return nodes, nil
	}

	bp, ok := e.blueprints.Load(workflowID)
	if !ok {
		return nil, fmt.Errorf("blueprint not found: %s", workflowID)
	}

	nodes := make([]node.Node, len(bp.Nodes))
	for i, bn := range bp.Nodes {
		n, err := e.catalog.Prepare(bn)
		if err != nil {
			return nil, fmt.Errorf("preparing node %d (kind %q): %w", i, bn.Kind, err)
		}
		nodes[i] = n
	}

	e.executable.Store(workflowID, nodes)
	return nodes, nil
}

// StartWorkflow initializes a fresh instance and pushes its first task.
func (e *Engine) StartWorkflow(ctx context.Context, workflowID string, initialVars map[string]interface{}) (string, error) {
	if _, err := e.prepareBlueprint(workflowID); err != nil {
		return "", err
	}
	bp, ok := e.blueprints.Load(workflowID)
	if !ok {
		return "", fmt.Errorf("blueprint not found: %s", workflowID)
	}

	instanceID := uuid.NewString()
	if err := e.store.InitInstance(ctx, instanceID, initialVars); err != nil {
		return "", fmt.Errorf("initializing instance: %w", err)
	}

	t := task.Task{
		InstanceID: instanceID,
		WorkflowID: workflowID,
		TokenID:    uuid.NewString(),
		FlowID:     uuid.NewString(),
		NodeIndex:  bp.StartIndex,
	}
	if err := e.queue.Push(ctx, t); err != nil {
		return "", fmt.Errorf("pushing initial task: %w", err)
	}
	return instanceID, nil
}

// RunWorker pops and executes tasks until the queue closes or ctx is
// canceled. Multiple RunWorker calls may run concurrently against the
// same Engine.
func (e *Engine) RunWorker(ctx context.Context) {
	log := e.log
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker stopping: context canceled")
			return
		default:
		}

		t, result, err := e.queue.Pop(ctx)
		if err != nil {
			log.Error("error popping task queue", "error", err)
			continue
		}
		switch result {
		case queue.PopClosed:
			log.Info("worker stopping: queue closed")
			return
		case queue.PopEmpty:
			continue
		}

		e.executeTask(ctx, t)
	}
}

func (e *Engine) executeTask(ctx context.Context, t task.Task) {
	log := e.log.WithInstance(t.InstanceID).WithNode(t.NodeIndex)

	nodes, err := e.prepareBlueprint(t.WorkflowID)
	if err != nil {
		log.Error("failed to prepare blueprint", "workflow_id", t.WorkflowID, "error", err)
		return
	}
	if t.NodeIndex < 0 || t.NodeIndex >= len(nodes) {
		log.Error("node index out of bounds", "len", len(nodes))
		return
	}

	n := nodes[t.NodeIndex]
	sc := syscall.New()
	nc := &node.Context{InstanceID: t.InstanceID, Store: e.store}

	execCtx, cancel := context.WithTimeout(ctx, e.nodeTime)
	defer cancel()
	nc.Ctx = execCtx

	done := make(chan error, 1)
	go func() {
		done <- n.Execute(nc, t, sc)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error("task failed", "error", err)
			return
		}
		e.flush(ctx, t, sc)
	case <-execCtx.Done():
		log.Error("task timed out", "timeout", e.nodeTime)
	}
}

// flush enqueues one follow-up task per jump/fork request the node's
// syscall buffered; wait()/terminate() enqueue nothing.
func (e *Engine) flush(ctx context.Context, t task.Task, sc *syscall.Syscall) {
	for _, req := range sc.Requests() {
		switch req.Kind {
		case syscall.KindJump:
			e.pushFollowUp(ctx, t, t.TokenID, req.Target)
		case syscall.KindFork:
			for _, target := range req.Targets {
				e.pushFollowUp(ctx, t, uuid.NewString(), target)
			}
		case syscall.KindWait, syscall.KindTerminate:
			// No follow-up task: wait() leaves the token consumed until
			// another arrival satisfies the join; terminate() ends it.
		}
	}
}

func (e *Engine) pushFollowUp(ctx context.Context, t task.Task, tokenID string, nodeIndex int) {
	newTask := task.Task{
		InstanceID: t.InstanceID,
		WorkflowID: t.WorkflowID,
		TokenID:    tokenID,
		FlowID:     t.FlowID,
		NodeIndex:  nodeIndex,
	}
	if err := e.queue.Push(ctx, newTask); err != nil {
		e.log.Error("failed to schedule follow-up task", "error", err)
	}
}

// GetInstanceVar reads one variable from a running or completed
// instance, for read-only inspection (e.g. the HTTP API).
func (e *Engine) GetInstanceVar(ctx context.Context, instanceID, key string) (interface{}, bool, error) {
	return e.store.GetVar(ctx, instanceID, key)
}

// GetInstanceVars reads every variable for an instance.
func (e *Engine) GetInstanceVars(ctx context.Context, instanceID string) (map[string]interface{}, error) {
	return e.store.GetAllVars(ctx, instanceID)
}
