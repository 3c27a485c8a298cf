package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/logging"
)

// One server per test binary: metrics register against the default
// prometheus registerer.
func TestServerWiring(t *testing.T) {
	cfg := config.Default()
	cfg.Bridge.AgentName = "support-agent"

	srv, err := New(cfg, logging.NewDefault())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		srv.Router().ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	var session map[string]interface{}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "disconnected", session["connection_state"])
	ctx := session["context"].(map[string]interface{})
	assert.Equal(t, "support-agent", ctx["agentName"])

	w = do(http.MethodPatch, "/context", `{"userId":"u-1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodPost, "/messages", `{"type":"status_update"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bridge_")

	w = do(http.MethodGet, "/session", "")
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
