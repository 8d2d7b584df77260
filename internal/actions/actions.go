// Package actions implements the Function node's domain operations: the
// registered handlers a Function node's "kind" dispatches to. spec.md §1
// names these ("the HTTP client operation", "individual domain operations
// (logging, sleeping, ...)") as external collaborators whose contract the
// spec defines but doesn't implement; skript ships minimal versions so the
// §8 scenarios run end-to-end without a caller supplying their own
// registry.
package actions

import (
	"context"
	"fmt"
	"sync"

	"github.com/lyzr/skript/internal/mode"
)

// Handler is one registered Function operation. Execute receives its
// parameters already resolved of "${name}" placeholders by the Function
// node, and returns the value to write to the node's output variable (if
// any).
type Handler interface {
	Name() string
	Mode() mode.Mode
	Execute(ctx context.Context, params map[string]interface{}) (interface{}, error)
}

// Registry maps operation name to Handler. A single Registry is normally
// shared by the engine's node catalog and by Fused nodes, which may only
// embed Sync handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register adds h under h.Name(), replacing any previous handler with the
// same name.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Name()] = h
}

// Get returns the handler registered under name, if any.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists every registered handler name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// NewStandardRegistry returns a Registry with log, sleep, and http
// registered, the built-in set spec.md §9's supplemented features name.
func NewStandardRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewLogHandler())
	r.Register(NewSleepHandler())
	r.Register(NewHTTPHandler())
	return r
}

// ErrUnknownHandler is wrapped into the error returned when a Function
// node references an operation name with no registered Handler.
type ErrUnknownHandler struct {
	Name string
}

func (e *ErrUnknownHandler) Error() string {
	return fmt.Sprintf("unknown function operation: %q", e.Name)
}
