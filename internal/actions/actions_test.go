package actions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/skript/internal/mode"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	h := NewLogHandler()
	r.Register(h)

	got, ok := r.Get("log")
	require.True(t, ok)
	assert.Equal(t, h, got)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryNamesListsEverything(t *testing.T) {
	r := NewStandardRegistry()
	names := r.Names()
	assert.ElementsMatch(t, []string{"log", "sleep", "http"}, names)
}

func TestErrUnknownHandlerMessage(t *testing.T) {
	err := &ErrUnknownHandler{Name: "nope"}
	assert.Contains(t, err.Error(), "nope")
}

func TestLogHandlerUsesMsgWhenPresent(t *testing.T) {
	h := NewLogHandler()
	assert.Equal(t, "log", h.Name())
	assert.Equal(t, mode.Sync, h.Mode())

	out, err := h.Execute(context.Background(), map[string]interface{}{"msg": "hello"})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestLogHandlerFallsBackToWholeParamMap(t *testing.T) {
	h := NewLogHandler()
	out, err := h.Execute(context.Background(), map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestSleepHandlerSleepsThenReturns(t *testing.T) {
	h := NewSleepHandler()
	assert.Equal(t, "sleep", h.Name())
	assert.Equal(t, mode.Async, h.Mode())

	start := time.Now()
	out, err := h.Execute(context.Background(), map[string]interface{}{"duration_ms": 10})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestSleepHandlerCanceledContext(t *testing.T) {
	h := NewSleepHandler()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, map[string]interface{}{"duration_ms": 1000})
	assert.Error(t, err)
}

func TestSleepHandlerRejectsNonNumericDuration(t *testing.T) {
	h := NewSleepHandler()
	_, err := h.Execute(context.Background(), map[string]interface{}{"duration_ms": "soon"})
	assert.Error(t, err)
}

func TestHTTPHandlerRequiresURL(t *testing.T) {
	h := NewHTTPHandler()
	assert.Equal(t, "http", h.Name())
	assert.Equal(t, mode.Async, h.Mode())

	_, err := h.Execute(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}

func TestHTTPHandlerGetRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	h := NewHTTPHandler()
	out, err := h.Execute(context.Background(), map[string]interface{}{
		"url":     srv.URL,
		"headers": map[string]interface{}{"X-Test": "v"},
	})
	require.NoError(t, err)

	result, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, http.StatusTeapot, result["status"])
	assert.Equal(t, "ok", result["body"])
}
