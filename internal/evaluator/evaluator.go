// Package evaluator compiles and evaluates CEL expressions against an
// instance's current variables. It backs If and Loop conditions and
// Assign's right-hand-side expressions (spec.md §4.3), grounded in
// cmd/workflow-runner/condition/evaluator.go's cached-program design but
// collapsed to one flat variable environment: skript has no separate
// "prior node output" concept, so every instance variable is visible to
// every expression under its own name.
package evaluator

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// Evaluator compiles CEL programs on demand and caches them, guarded by a
// mutex exactly as the teacher's condition.Evaluator does.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]cel.Program
}

// New returns an Evaluator with an empty program cache.
func New() *Evaluator {
	return &Evaluator{cache: map[string]cel.Program{}}
}

// Eval compiles (or reuses a cached compilation of) expr against the
// variable names present in vars, then evaluates it and returns the
// native Go result.
func (e *Evaluator) Eval(expr string, vars map[string]interface{}) (interface{}, error) {
	prg, err := e.program(expr, vars)
	if err != nil {
		return nil, err
	}

	activation := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		activation[k] = v
	}

	out, _, err := prg.Eval(activation)
	if err != nil {
		return nil, fmt.Errorf("evaluating expression %q: %w", expr, err)
	}
	return out.Value(), nil
}

// EvalBool evaluates expr and requires a boolean result, for If branch
// conditions and Loop conditions.
func (e *Evaluator) EvalBool(expr string, vars map[string]interface{}) (bool, error) {
	val, err := e.Eval(expr, vars)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q did not evaluate to a boolean (got %T)", expr, val)
	}
	return b, nil
}

func (e *Evaluator) program(expr string, vars map[string]interface{}) (cel.Program, error) {
	key := cacheKey(expr, vars)

	e.mu.RLock()
	if prg, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, ok := e.cache[key]; ok {
		return prg, nil
	}

	decls := make([]cel.EnvOption, 0, len(vars))
	for k := range vars {
		decls = append(decls, cel.Variable(k, cel.DynType))
	}

	env, err := cel.NewEnv(decls...)
	if err != nil {
		return nil, fmt.Errorf("building CEL environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compiling expression %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building CEL program for %q: %w", expr, err)
	}

	e.cache[key] = prg
	return prg, nil
}

// cacheKey includes the variable set's names (not values) because CEL must
// declare every identifier an expression can reference at compile time; an
// expression compiled against one variable-name set can't run against a
// differently-shaped one.
func cacheKey(expr string, vars map[string]interface{}) string {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return expr + "|" + strings.Join(names, ",")
}

// ClearCache drops every compiled program, forcing recompilation on next
// use.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = map[string]cel.Program{}
}

// CacheSize reports how many distinct (expression, variable-set) programs
// are currently cached.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
