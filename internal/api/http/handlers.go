package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/channel"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/contextstore"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/controller"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/probe"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/logging"
)

// Handlers serves the host application's REST surface over the bridge.
type Handlers struct {
	controller *controller.Controller
	probe      *probe.Probe
	logger     *logging.Logger
	started    time.Time
}

// NewHandlers creates the REST handler set.
func NewHandlers(ctrl *controller.Controller, prb *probe.Probe, logger *logging.Logger) *Handlers {
	return &Handlers{
		controller: ctrl,
		probe:      prb,
		logger:     logger.Named("http"),
		started:    time.Now(),
	}
}

// Root returns service identification.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "adk-bridge",
		"status":  "running",
	})
}

// Health reports bridge health: the connection state, whether a peer
// handle is attached, and a live reachability check of the agent UI.
func (h *Handlers) Health(c *gin.Context) {
	status := h.probe.Check(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"connection_state": h.controller.State(),
		"peer":             status.String(),
		"uptime_seconds":   int64(time.Since(h.started).Seconds()),
	})
}

// Session returns the full observable session: state, context, and the
// message log in append order.
func (h *Handlers) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Snapshot())
}

// SendMessageRequest is the body of POST /messages.
type SendMessageRequest struct {
	Type    string      `json:"type" binding:"required"`
	Payload interface{} `json:"payload"`
}

// SendMessage dispatches an envelope to the peer. Delivery is best-effort:
// without an attached peer the envelope is dropped, reported via the
// delivered flag.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	delivered := h.controller.SendMessage(channel.Envelope{
		Type:    req.Type,
		Payload: req.Payload,
	})
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

// Messages returns the message log.
func (h *Handlers) Messages(c *gin.Context) {
	snap := h.controller.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"messages": snap.Messages,
		"count":    len(snap.Messages),
	})
}

// Context returns the current shared context.
func (h *Handlers) Context(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"context": h.controller.Snapshot().Context})
}

// UpdateContext shallow-merges a partial context update and pushes the
// merged snapshot to the peer. Unknown keys are rejected whole.
func (h *Handlers) UpdateContext(c *gin.Context) {
	var partial contextstore.Context
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.controller.UpdateContext(partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"context": h.controller.Snapshot().Context})
}

// ClearContext resets the shared context on both sides.
func (h *Handlers) ClearContext(c *gin.Context) {
	h.controller.ClearContext()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// StartValidationRequest is the body of POST /validation/start.
type StartValidationRequest struct {
	Payload interface{} `json:"payload"`
}

// StartValidation asks the peer to begin a validation run.
func (h *Handlers) StartValidation(c *gin.Context) {
	var req StartValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	delivered := h.controller.StartValidation(req.Payload)
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}
