package actions

import (
	"context"
	"log/slog"

	"github.com/lyzr/skript/internal/mode"
)

// LogHandler implements the "log" Function operation: logs params["msg"]
// if present, else the whole parameter map, and always returns nil.
// Grounded in original_source's actions/builtin.rs LogAction.
type LogHandler struct{}

// NewLogHandler returns the "log" handler.
func NewLogHandler() *LogHandler { return &LogHandler{} }

func (h *LogHandler) Name() string    { return "log" }
func (h *LogHandler) Mode() mode.Mode { return mode.Sync }

func (h *LogHandler) Execute(_ context.Context, params map[string]interface{}) (interface{}, error) {
	if msg, ok := params["msg"].(string); ok {
		slog.Info(msg)
		return nil, nil
	}
	slog.Info("log", "params", params)
	return nil, nil
}
