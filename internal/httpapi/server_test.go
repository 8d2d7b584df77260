package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/skript/internal/actions"
	"github.com/lyzr/skript/internal/catalog"
	"github.com/lyzr/skript/internal/compiler"
	"github.com/lyzr/skript/internal/dsl"
	"github.com/lyzr/skript/internal/engine"
	"github.com/lyzr/skript/internal/evaluator"
	"github.com/lyzr/skript/internal/queue"
	"github.com/lyzr/skript/internal/store"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	st := store.NewMemory()
	q := queue.NewMemory(16)
	cat := catalog.New(actions.NewStandardRegistry(), evaluator.New(), nil)
	eng := engine.New(st, q, cat, nil, 2*time.Second)
	t.Cleanup(func() { q.Close() })

	wf := &dsl.Workflow{
		ID: "wf",
		Nodes: []dsl.Node{
			{ID: "start", Type: dsl.NodeStart},
			{ID: "step", Type: dsl.NodeAssign, Assignments: []dsl.Assignment{{Key: "x", Value: 7}}},
			{ID: "end", Type: dsl.NodeEnd, OutputVar: "x"},
		},
		Edges: []dsl.Edge{
			{Source: "start", Target: "step"},
			{Source: "step", Target: "end"},
		},
	}
	bp, err := compiler.Compile(wf)
	require.NoError(t, err)
	eng.RegisterBlueprint(bp)

	instanceID, err := eng.StartWorkflow(context.Background(), "wf", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() { eng.RunWorker(ctx); close(done) }()
	<-done

	return New(eng, nil), instanceID
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetInstance(t *testing.T) {
	s, instanceID := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/instances/"+instanceID, nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	vars, ok := body["variables"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 7, vars["x"])
}

func TestGetVarFound(t *testing.T) {
	s, instanceID := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/instances/"+instanceID+"/vars/x", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 7, body["value"])
}

func TestGetVarNotFound(t *testing.T) {
	s, instanceID := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/instances/"+instanceID+"/vars/missing", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
