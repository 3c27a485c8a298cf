package http

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/channel"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/contextstore"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/controller"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/origin"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/probe"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/logging"
)

type fakePeer struct {
	written []channel.Envelope
}

func (f *fakePeer) WriteJSON(v interface{}) error {
	f.written = append(f.written, v.(channel.Envelope))
	return nil
}

type fixture struct {
	router     *gin.Engine
	controller *controller.Controller
}

func newFixture(t *testing.T, agentURL string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	policy, err := origin.New("http://localhost:3000", agentURL)
	require.NoError(t, err)
	store, err := contextstore.New(contextstore.Context{
		contextstore.KeyAgentName: "support-agent",
	})
	require.NoError(t, err)

	ctrl := controller.New(controller.Config{
		Channel: channel.New(policy, nil),
		Store:   store,
	})

	logger := logging.NewDefault()
	h := NewHandlers(ctrl, probe.New(policy.ProbeBase(), time.Minute, nil, nil), logger)

	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/session", h.Session)
	router.POST("/messages", h.SendMessage)
	router.GET("/messages", h.Messages)
	router.GET("/messages/export", h.ExportMessages)
	router.GET("/context", h.Context)
	router.PATCH("/context", h.UpdateContext)
	router.POST("/context/clear", h.ClearContext)
	router.POST("/validation/start", h.StartValidation)

	return &fixture{router: router, controller: ctrl}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthReportsStateAndReachability(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer agent.Close()

	f := newFixture(t, agent.URL)
	w := f.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disconnected", body["connection_state"])
	assert.Equal(t, "reachable", body["peer"])
}

func TestHealthUnreachableAgent(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:1")
	w := f.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unreachable", decode(t, w)["peer"])
}

func TestSessionSnapshot(t *testing.T) {
	f := newFixture(t, "http://localhost:5000")
	w := f.do(http.MethodGet, "/session", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "disconnected", body["connection_state"])
	ctx := body["context"].(map[string]interface{})
	assert.Equal(t, "support-agent", ctx["agentName"])
}

func TestSendMessageWithoutPeer(t *testing.T) {
	f := newFixture(t, "http://localhost:5000")
	w := f.do(http.MethodPost, "/messages", `{"type":"status_update","payload":{"k":"v"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["delivered"])

	w = f.do(http.MethodGet, "/messages", "")
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestSendMessageDelivered(t *testing.T) {
	f := newFixture(t, "http://localhost:5000")
	peer := &fakePeer{}
	f.controller.AttachPeer(peer)

	w := f.do(http.MethodPost, "/messages", `{"type":"status_update"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["delivered"])

	require.Len(t, peer.written, 1)
	assert.Equal(t, channel.SourceParent, peer.written[0].Source)

	w = f.do(http.MethodGet, "/messages", "")
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestSendMessageRequiresType(t *testing.T) {
	f := newFixture(t, "http://localhost:5000")
	w := f.do(http.MethodPost, "/messages", `{"payload":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateContext(t *testing.T) {
	f := newFixture(t, "http://localhost:5000")
	w := f.do(http.MethodPatch, "/context", `{"userId":"u-77"}`)

	require.Equal(t, http.StatusOK, w.Code)
	ctx := decode(t, w)["context"].(map[string]interface{})
	assert.Equal(t, "u-77", ctx["userId"])
	assert.Equal(t, "support-agent", ctx["agentName"])
}

func TestUpdateContextUnknownKey(t *testing.T) {
	f := newFixture(t, "http://localhost:5000")
	w := f.do(http.MethodPatch, "/context", `{"favoriteColor":"green"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/context", "")
	ctx := decode(t, w)["context"].(map[string]interface{})
	assert.NotContains(t, ctx, "favoriteColor")
}

func TestClearContext(t *testing.T) {
	f := newFixture(t, "http://localhost:5000")
	w := f.do(http.MethodPost, "/context/clear", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/context", "")
	assert.Empty(t, decode(t, w)["context"])
}

func TestStartValidation(t *testing.T) {
	f := newFixture(t, "http://localhost:5000")
	peer := &fakePeer{}
	f.controller.AttachPeer(peer)

	w := f.do(http.MethodPost, "/validation/start", `{"payload":{"scope":"form"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["delivered"])

	require.Len(t, peer.written, 1)
	assert.Equal(t, channel.TypeStartValidation, peer.written[0].Type)
}

func TestExportMessagesNDJSON(t *testing.T) {
	f := newFixture(t, "http://localhost:5000")
	f.controller.AttachPeer(&fakePeer{})
	f.do(http.MethodPost, "/messages", `{"type":"status_update"}`)
	f.do(http.MethodPost, "/messages", `{"type":"navigation_request"}`)

	w := f.do(http.MethodGet, "/messages/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var env channel.Envelope
	require.NoError(t, sonic.Unmarshal([]byte(lines[0]), &env))
	assert.Equal(t, "status_update", env.Type)
	assert.Equal(t, channel.SourceParent, env.Source)
}

func TestRelayChat(t *testing.T) {
	var gotBody map[string]interface{}
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, sonic.Unmarshal(body, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reply":"hello"}`))
	}))
	defer agent.Close()

	relay := NewRelay(RelayConfig{
		Base:   agent.URL,
		Logger: logging.NewDefault(),
		Context: func() map[string]string {
			return map[string]string{"agentName": "support-agent"}
		},
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/agent/chat", relay.Chat)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/agent/chat",
		strings.NewReader(`{"message":"hi","context":{"userId":"u-1"}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply":"hello"}`, w.Body.String())

	assert.Equal(t, "hi", gotBody["message"])
	ctx := gotBody["context"].(map[string]interface{})
	assert.Equal(t, "support-agent", ctx["agentName"])
	assert.Equal(t, "u-1", ctx["userId"])
}

func TestRelayAgentError(t *testing.T) {
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer agent.Close()

	relay := NewRelay(RelayConfig{
		Base:    agent.URL,
		Logger:  logging.NewDefault(),
		Context: func() map[string]string { return map[string]string{} },
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/agent/chat", relay.Chat)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/agent/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
