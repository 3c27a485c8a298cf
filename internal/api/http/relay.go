package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/tracing"
)

// Relay forwards chat requests from the host application to the agent
// backend behind the UI. Calls retry transient failures and fail fast
// through a circuit breaker while the agent is down; the health probe is
// deliberately not routed through either, its cadence is fixed.
type Relay struct {
	client  *resty.Client
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	logger  *logging.Logger
	getCtx  func() map[string]string
}

// RelayConfig assembles a relay.
type RelayConfig struct {
	// Base is the agent backend base URL; chat posts to Base + "/chat".
	Base    string
	Timeout time.Duration
	Metrics *monitoring.Metrics
	Logger  *logging.Logger

	// Context supplies the session context snapshot attached to every
	// relayed request.
	Context func() map[string]string
}

// NewRelay creates a relay with retrying transport and a circuit breaker.
func NewRelay(cfg RelayConfig) *Relay {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(cfg.Base).
		SetTimeout(timeout)

	logger := cfg.Logger.Named("relay")
	breaker := resilience.New("agent-relay", resilience.Settings{
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Relay{
		client:  client,
		breaker: breaker,
		metrics: cfg.Metrics,
		logger:  logger,
		getCtx:  cfg.Context,
	}
}

// ChatRequest is the body of POST /agent/chat.
type ChatRequest struct {
	Message string            `json:"message" binding:"required"`
	Context map[string]string `json:"context"`
}

// Chat forwards a message to the agent backend, layering the session
// context under any caller-provided entries.
func (r *Relay) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	merged := r.getCtx()
	for k, v := range req.Context {
		merged[k] = v
	}

	traceHeaders := make(map[string]string)
	tracing.InjectTraceContext(c.Request.Context(), traceHeaders)

	start := time.Now()
	var resp *resty.Response
	err := r.breaker.Execute(func() error {
		var callErr error
		resp, callErr = r.client.R().
			SetContext(c.Request.Context()).
			SetHeaders(traceHeaders).
			SetBody(map[string]interface{}{
				"message": req.Message,
				"context": merged,
			}).
			Post("/chat")
		if callErr != nil {
			return callErr
		}
		if resp.IsError() {
			return errAgentStatus(resp.StatusCode())
		}
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		status := "error"
		code := http.StatusBadGateway
		if err == resilience.ErrCircuitOpen {
			status = "rejected"
			code = http.StatusServiceUnavailable
		}
		if r.metrics != nil {
			r.metrics.RecordRelayCall(status, duration)
		}
		r.logger.Warn("agent relay failed", zap.Error(err))
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	if r.metrics != nil {
		r.metrics.RecordRelayCall("success", duration)
	}
	c.Data(http.StatusOK, "application/json", resp.Body())
}

type agentStatusError int

func errAgentStatus(code int) error { return agentStatusError(code) }

func (e agentStatusError) Error() string {
	return "agent backend returned " + http.StatusText(int(e))
}
