// Package bench implements the auto-tuning stress benchmark (spec.md §6's
// `bench` subcommand), grounded on
// original_source/src/benchmark/mod.rs's chained-assign/fan-out load
// generator and ramp-then-sustain tuning strategy.
package bench

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/lyzr/skript/internal/actions"
	"github.com/lyzr/skript/internal/catalog"
	"github.com/lyzr/skript/internal/compiler"
	"github.com/lyzr/skript/internal/dsl"
	"github.com/lyzr/skript/internal/engine"
	"github.com/lyzr/skript/internal/evaluator"
	"github.com/lyzr/skript/internal/logger"
	"github.com/lyzr/skript/internal/queue"
	"github.com/lyzr/skript/internal/store"
)

const assignChainLength = 10

// Runner drives the benchmark over an in-memory Engine.
type Runner struct {
	eng    *engine.Engine
	cat    *catalog.Catalog
	cancel context.CancelFunc
	NoJIT  bool
}

// NewRunner builds a benchmark engine with assign/start/end/fork/join
// wired and a pool of worker goroutines already running.
func NewRunner(noJIT bool) *Runner {
	log := logger.Nop()
	st := store.NewMemory()
	q := queue.NewMemory(1 << 16)
	cat := catalog.New(actions.NewStandardRegistry(), evaluator.New(), log)
	eng := engine.New(st, q, cat, log, 30*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	workers := runtime.NumCPU() * 2
	for i := 0; i < workers; i++ {
		go eng.RunWorker(ctx)
	}

	return &Runner{eng: eng, cat: cat, cancel: cancel, NoJIT: noJIT}
}

// Close stops the runner's worker pool.
func (r *Runner) Close() { r.cancel() }

// buildWorkflow constructs a fan-out workflow with branchCount parallel
// branches, each a chain of assignChainLength dependent assignments ending
// in a per-branch "finished" flag, joined before a final End.
func buildWorkflow(id string, branchCount int) *dsl.Workflow {
	var branches [][]dsl.Node
	for i := 0; i < branchCount; i++ {
		prefix := fmt.Sprintf("b%d_", i)
		var branch []dsl.Node

		branch = append(branch, dsl.Node{
			ID:         prefix + "assign_0",
			Type:       dsl.NodeAssign,
			Expression: fmt.Sprintf("%stemp_0 = 1", prefix),
		})
		for j := 1; j < assignChainLength; j++ {
			branch = append(branch, dsl.Node{
				ID:         fmt.Sprintf("%sassign_%d", prefix, j),
				Type:       dsl.NodeAssign,
				Expression: fmt.Sprintf("%stemp_%d = %stemp_%d + 1", prefix, j, prefix, j-1),
			})
		}
		branch = append(branch, dsl.Node{
			ID:   prefix + "assign_final",
			Type: dsl.NodeAssign,
			Assignments: []dsl.Assignment{
				{Key: fmt.Sprintf("finished_branch_%d", i), Value: true},
			},
		})
		branches = append(branches, branch)
	}

	nodes := []dsl.Node{
		{ID: "start", Type: dsl.NodeStart},
		{ID: "par", Type: dsl.NodeParallel, ParallelBranches: branches},
		{ID: "final_join", Type: dsl.NodeJoin, ExpectCount: branchCount},
		{ID: "end", Type: dsl.NodeEnd, OutputVar: "overall_finished"},
	}
	edges := []dsl.Edge{
		{Source: "start", Target: "par"},
		{Source: "par", Target: "final_join"},
		{Source: "final_join", Target: "end"},
	}

	return &dsl.Workflow{ID: id, Name: "bench-chained-assign", Nodes: nodes, Edges: edges}
}

// runOnce compiles, registers, and runs one fan-out/join round, blocking
// until every branch reports finished, and returns its throughput.
func (r *Runner) runOnce(ctx context.Context, branchCount int) (time.Duration, float64, error) {
	workflowID := fmt.Sprintf("bench_chain_%d_%d", branchCount, time.Now().UnixNano())
	wf := buildWorkflow(workflowID, branchCount)

	bp, err := compiler.CompileWithFusion(wf, !r.NoJIT, r.cat.IsFusible)
	if err != nil {
		return 0, 0, fmt.Errorf("compiling benchmark workflow: %w", err)
	}
	r.eng.RegisterBlueprint(bp)

	start := time.Now()
	instanceID, err := r.eng.StartWorkflow(ctx, workflowID, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("starting benchmark workflow: %w", err)
	}

	deadline := time.Now().Add(60 * time.Second)
	for {
		time.Sleep(100 * time.Microsecond)
		allFinished := true
		for i := 0; i < branchCount; i++ {
			v, ok, err := r.eng.GetInstanceVar(ctx, instanceID, fmt.Sprintf("finished_branch_%d", i))
			if err != nil {
				return 0, 0, err
			}
			if b, isBool := v.(bool); !ok || !isBool || !b {
				allFinished = false
				break
			}
		}
		if allFinished {
			break
		}
		if time.Now().After(deadline) {
			return 0, 0, fmt.Errorf("benchmark timeout waiting for %d branches", branchCount)
		}
	}

	duration := time.Since(start)
	totalOpsPerBranch := assignChainLength + 1
	totalTasks := branchCount * totalOpsPerBranch
	tps := float64(totalTasks) / duration.Seconds()
	return duration, tps, nil
}

// Report summarizes one AutoTune run: the peak ramp-phase throughput, the
// branch count that reached it, and the sustain-phase totals.
type Report struct {
	Workers      int
	PeakTPS      float64
	OptimalLoad  int
	SustainTasks int
	SustainSecs  float64
}

// AutoTune runs the ramp-up-then-sustain tuning loop: doubling branch
// count while throughput keeps improving, then holding the best load for
// a fixed sustain window.
func AutoTune(ctx context.Context, noJIT bool, progress func(string)) (*Report, error) {
	if progress == nil {
		progress = func(string) {}
	}
	r := NewRunner(noJIT)
	defer r.Close()

	gctx := ctx
	currentBranches := 100
	var lastAvgTPS, peakTPS float64
	optimalLoad := 0

	for {
		var tpsSum float64
		for i := 0; i < 3; i++ {
			_, tps, err := r.runOnce(gctx, currentBranches)
			if err != nil {
				return nil, err
			}
			tpsSum += tps
		}
		avgTPS := tpsSum / 3
		progress(fmt.Sprintf("ramping: %d branches | tps: %.2f", currentBranches, avgTPS))

		if avgTPS > peakTPS {
			peakTPS = avgTPS
			optimalLoad = currentBranches
		}

		if avgTPS > lastAvgTPS*0.98 {
			lastAvgTPS = avgTPS
			currentBranches *= 2
		} else {
			progress(fmt.Sprintf("saturation detected at %d branches", currentBranches))
			break
		}
		if currentBranches > 200_000 {
			progress("safety cap reached")
			break
		}
	}

	progress(fmt.Sprintf("sustained load test: %d branches for 10s", optimalLoad))
	sustainStart := time.Now()
	totalTasksProcessed := 0
	for time.Since(sustainStart) < 10*time.Second {
		if _, _, err := r.runOnce(gctx, optimalLoad); err != nil {
			progress(fmt.Sprintf("sustain error: %v", err))
			continue
		}
		totalTasksProcessed += optimalLoad
	}

	return &Report{
		Workers:      runtime.NumCPU() * 2,
		PeakTPS:      peakTPS,
		OptimalLoad:  optimalLoad,
		SustainTasks: totalTasksProcessed,
		SustainSecs:  time.Since(sustainStart).Seconds(),
	}, nil
}
