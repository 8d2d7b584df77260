package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/lyzr/skript/internal/mode"
)

// SleepHandler implements the "sleep" Function operation: blocks for
// params["duration_ms"] milliseconds or until the context is canceled,
// whichever comes first. Registered as Async since it suspends the
// worker — fusing it with sync operations would be a correctness hazard
// (spec.md §9). Grounded in §8 scenario 4's implied "sleeping 300ms"
// branch operation.
type SleepHandler struct{}

// NewSleepHandler returns the "sleep" handler.
func NewSleepHandler() *SleepHandler { return &SleepHandler{} }

func (h *SleepHandler) Name() string    { return "sleep" }
func (h *SleepHandler) Mode() mode.Mode { return mode.Async }

func (h *SleepHandler) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	ms, err := durationMS(params["duration_ms"])
	if err != nil {
		return nil, fmt.Errorf("sleep: %w", err)
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func durationMS(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("duration_ms must be a number, got %T", v)
	}
}
