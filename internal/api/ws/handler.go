package ws

import (
	"net/http"

	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/controller"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/origin"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/shared/id"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxFrameSize bounds a single inbound frame; oversized frames close the
// connection.
const maxFrameSize = 64 * 1024

// Handler manages the embedded UI's WebSocket attachment. A single UI
// instance is expected at a time; a new attachment replaces the previous
// peer on the controller.
type Handler struct {
	controller *controller.Controller
	policy     *origin.Policy
	metrics    *monitoring.Metrics
	logger     *logging.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates a WebSocket handler gated by the origin policy.
func NewHandler(ctrl *controller.Controller, policy *origin.Policy, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	h := &Handler{
		controller: ctrl,
		policy:     policy,
		metrics:    metrics,
		logger:     logger.Named("ws"),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// Non-browser clients omit the Origin header; the per-message
			// policy gate still applies to everything they send.
			o := r.Header.Get("Origin")
			return o == "" || policy.IsTrusted(o)
		},
	}
	return h
}

// HandleConnection upgrades the request and pumps inbound frames into the
// controller until the peer disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	connID := id.NewConnectionID()
	observedOrigin := c.Request.Header.Get("Origin")
	if observedOrigin == "" {
		observedOrigin = h.policy.SelfOrigin()
	}

	h.controller.AttachPeer(conn)
	h.metrics.SetPeerAttached(true)
	h.logger.Info("peer attached",
		zap.String("connection_id", connID.String()),
		zap.String("origin", observedOrigin),
	)

	defer func() {
		h.controller.DetachPeer(conn)
		h.metrics.SetPeerAttached(false)
		h.logger.Info("peer detached", zap.String("connection_id", connID.String()))
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read error",
					zap.String("connection_id", connID.String()),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.controller.Receive(observedOrigin, data)
	}
}
