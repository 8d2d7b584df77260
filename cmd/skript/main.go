// Command skript is the reference CLI: run a workflow standalone, serve a
// distributed worker against Redis, submit a workflow to one, or run the
// auto-tuning benchmark (spec.md §6, grounded on
// original_source/src/bin/skript.rs).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/lyzr/skript/internal/actions"
	"github.com/lyzr/skript/internal/bench"
	"github.com/lyzr/skript/internal/catalog"
	"github.com/lyzr/skript/internal/compiler"
	"github.com/lyzr/skript/internal/config"
	"github.com/lyzr/skript/internal/dsl"
	"github.com/lyzr/skript/internal/engine"
	"github.com/lyzr/skript/internal/evaluator"
	"github.com/lyzr/skript/internal/httpapi"
	"github.com/lyzr/skript/internal/logger"
	"github.com/lyzr/skript/internal/queue"
	"github.com/lyzr/skript/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCmd(os.Args[2:])
	case "worker":
		workerCmd(os.Args[2:])
	case "submit":
		submitCmd(os.Args[2:])
	case "bench":
		benchCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: skript <run|worker|submit|bench> [flags]")
}

// keyValues implements flag.Value for repeated -D key=value arguments.
type keyValues struct {
	vars map[string]interface{}
}

func (k *keyValues) String() string { return "" }

func (k *keyValues) Set(s string) error {
	pos := strings.Index(s, "=")
	if pos < 0 {
		return fmt.Errorf("invalid KEY=value: no '=' found in %q", s)
	}
	key := s[:pos]
	raw := s[pos+1:]
	var val interface{}
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		val = raw
	}
	if k.vars == nil {
		k.vars = map[string]interface{}{}
	}
	k.vars[key] = val
	return nil
}

func registerStandardActions() *actions.Registry {
	return actions.NewStandardRegistry()
}

func loadWorkflowFile(path string) (*dsl.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return dsl.LoadYAML(data)
}

func runCmd(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	file := fs.String("file", "", "path to the workflow YAML file")
	var vars keyValues
	fs.Var(&vars, "D", "initial variable, key=value (repeatable)")
	fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "run: -file is required")
		os.Exit(1)
	}

	log := logger.New("info", "text")
	cfg, err := config.Load("skript-run")
	must(err)

	wf, err := loadWorkflowFile(*file)
	must(err)

	reg := registerStandardActions()
	cat := catalog.New(reg, evaluator.New(), log)
	bp, err := compiler.CompileWithFusion(wf, cfg.Runtime.EnableFusion, cat.IsFusible)
	must(err)

	st := store.NewMemory()
	q := queue.NewMemory(1024)
	eng := engine.New(st, q, cat, log, cfg.Runtime.NodeTimeout)
	eng.RegisterBlueprint(bp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	instanceID, err := eng.StartWorkflow(ctx, wf.ID, vars.vars)
	must(err)
	log.Info("workflow started", "instance_id", instanceID)

	workerCtx, workerCancel := context.WithCancel(ctx)
	go func() {
		eng.RunWorker(workerCtx)
	}()

	// The single worker gets a fixed 500ms; then the queue is closed and
	// the worker stopped, whether or not the instance has reached End.
	time.Sleep(500 * time.Millisecond)
	q.Close()
	workerCancel()

	output, _, err := eng.GetInstanceVar(ctx, instanceID, "_WORKFLOW_OUTPUT")
	if err == nil {
		log.Info("workflow finished", "instance_id", instanceID, "output", output)
	}
}

func newRedisClient(url string) *redis.Client {
	opts, err := redis.ParseURL(url)
	must(err)
	return redis.NewClient(opts)
}

func workerCmd(args []string) {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	redisURL := fs.String("redis", "redis://127.0.0.1:6379/0", "redis connection URL")
	name := fs.String("name", "worker", "worker name (for logging)")
	workflowsDir := fs.String("workflows", "", "directory of workflow YAML files to preload")
	fs.Parse(args)

	cfg, err := config.Load("skript-worker")
	must(err)
	log := logger.New(cfg.Service.LogLevel, cfg.Service.LogFormat).WithFields(map[string]any{"worker": *name})

	client := newRedisClient(*redisURL)
	st := store.NewRedis(client)
	q := queue.NewRedis(client, cfg.Redis.TasksKey, cfg.Runtime.QueuePopWait)

	reg := registerStandardActions()
	cat := catalog.New(reg, evaluator.New(), log)
	eng := engine.New(st, q, cat, log, cfg.Runtime.NodeTimeout)

	if *workflowsDir != "" {
		preloadWorkflows(eng, cat, cfg, *workflowsDir, log)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Runtime.Workers; i++ {
		group.Go(func() error {
			eng.RunWorker(gctx)
			return nil
		})
	}

	if cfg.API.Enabled {
		srv := httpapi.New(eng, log)
		group.Go(func() error {
			return srv.ListenAndServe(cfg.API.Addr)
		})
	}

	log.Info("worker ready")
	if err := group.Wait(); err != nil {
		log.Error("worker exited with error", "error", err)
	}
}

func preloadWorkflows(eng *engine.Engine, cat *catalog.Catalog, cfg *config.Config, dir string, log *logger.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Error("failed to read workflows directory", "dir", dir, "error", err)
		return
	}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		wf, err := loadWorkflowFile(path)
		if err != nil {
			log.Error("failed to load workflow", "path", path, "error", err)
			continue
		}
		bp, err := compiler.CompileWithFusion(wf, cfg.Runtime.EnableFusion, cat.IsFusible)
		if err != nil {
			log.Error("failed to compile workflow", "path", path, "error", err)
			continue
		}
		eng.RegisterBlueprint(bp)
		log.Info("loaded workflow", "workflow_id", wf.ID, "path", path)
	}
}

func submitCmd(args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	file := fs.String("file", "", "path to the workflow YAML file")
	redisURL := fs.String("redis", "redis://127.0.0.1:6379/0", "redis connection URL")
	var vars keyValues
	fs.Var(&vars, "D", "initial variable, key=value (repeatable)")
	fs.Parse(args)

	if *file == "" {
		fmt.Fprintln(os.Stderr, "submit: -file is required")
		os.Exit(1)
	}

	cfg, err := config.Load("skript-submit")
	must(err)
	log := logger.New(cfg.Service.LogLevel, cfg.Service.LogFormat)

	wf, err := loadWorkflowFile(*file)
	must(err)

	client := newRedisClient(*redisURL)
	st := store.NewRedis(client)
	q := queue.NewRedis(client, cfg.Redis.TasksKey, cfg.Runtime.QueuePopWait)

	reg := registerStandardActions()
	cat := catalog.New(reg, evaluator.New(), log)
	eng := engine.New(st, q, cat, log, cfg.Runtime.NodeTimeout)

	bp, err := compiler.CompileWithFusion(wf, cfg.Runtime.EnableFusion, cat.IsFusible)
	must(err)
	eng.RegisterBlueprint(bp)

	instanceID, err := eng.StartWorkflow(context.Background(), wf.ID, vars.vars)
	must(err)
	log.Info("workflow submitted", "instance_id", instanceID)
}

func benchCmd(args []string) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	noJIT := fs.Bool("no-jit", false, "disable chain-fusion optimization")
	fs.Parse(args)

	report, err := bench.AutoTune(context.Background(), *noJIT, func(line string) {
		fmt.Println(line)
	})
	must(err)

	fmt.Printf("workers=%d peak_tps=%.2f optimal_load=%d sustain_tasks=%d sustain_secs=%.2f\n",
		report.Workers, report.PeakTPS, report.OptimalLoad, report.SustainTasks, report.SustainSecs)
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
