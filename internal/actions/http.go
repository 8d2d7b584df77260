package actions

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lyzr/skript/internal/mode"
)

// HTTPHandler implements the "http" Function operation: a thin net/http
// wrapper, grounded in common/clients/http.go's plain-net/http client
// design rather than a heavier HTTP library, registered Async since it
// performs network I/O.
type HTTPHandler struct {
	client *http.Client
}

// NewHTTPHandler returns the "http" handler with a bounded default client
// timeout; per-call timeouts are governed by the node execution timeout
// the engine applies via context.
func NewHTTPHandler() *HTTPHandler {
	return &HTTPHandler{client: &http.Client{Timeout: 30 * time.Second}}
}

func (h *HTTPHandler) Name() string    { return "http" }
func (h *HTTPHandler) Mode() mode.Mode { return mode.Async }

// Execute reads params: "method" (default GET), "url" (required), "body"
// (optional string), "headers" (optional map[string]interface{}; entries
// whose value is not a string are skipped). It returns a
// map with "status" (int) and "body" (string).
func (h *HTTPHandler) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	url, ok := params["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("http: \"url\" parameter is required")
	}

	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if body, ok := params["body"].(string); ok {
		bodyReader = bytes.NewReader([]byte(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("http: building request: %w", err)
	}
	if headers, ok := params["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: reading response body: %w", err)
	}

	return map[string]interface{}{
		"status": resp.StatusCode,
		"body":   string(respBody),
	}, nil
}
