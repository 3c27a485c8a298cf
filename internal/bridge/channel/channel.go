package channel

import (
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/origin"
)

// Peer is the handle to the remote context. It exists only while the
// embedded surface is attached; before that, sends are silent no-ops.
// *websocket.Conn satisfies this.
type Peer interface {
	WriteJSON(v interface{}) error
}

// Channel wraps the raw cross-context transport: outbound envelope
// construction and dispatch, inbound origin/shape filtering. Delivery is
// fire-and-forget; retries and acks belong to application protocols built
// on top, not here.
type Channel struct {
	policy *origin.Policy
	logger *zap.Logger

	mu   sync.RWMutex
	peer Peer
}

// New creates a channel gated by the given origin policy.
func New(policy *origin.Policy, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{policy: policy, logger: logger}
}

// AttachPeer installs the peer handle. Replaces any previous handle; the
// embedding surface owns the handle lifecycle.
func (c *Channel) AttachPeer(p Peer) {
	c.mu.Lock()
	c.peer = p
	c.mu.Unlock()
	c.logger.Info("peer attached", zap.String("target_origin", c.policy.TargetOrigin()))
}

// DetachPeer removes the peer handle if it is still the given one. A stale
// detach from a superseded connection must not clobber its replacement.
func (c *Channel) DetachPeer(p Peer) {
	c.mu.Lock()
	if c.peer == p {
		c.peer = nil
	}
	c.mu.Unlock()
}

// HasPeer reports whether a peer handle is currently available.
func (c *Channel) HasPeer() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.peer != nil
}

// Send stamps the envelope as parent-originated and dispatches it to the
// peer. Returns the stamped envelope and true on dispatch; false when no
// peer handle is available or the write fails. Both are normal conditions
// during startup and teardown, not errors.
func (c *Channel) Send(env Envelope) (Envelope, bool) {
	env.Source = SourceParent
	env.Timestamp = now()

	c.mu.RLock()
	peer := c.peer
	c.mu.RUnlock()

	if peer == nil {
		c.logger.Debug("send dropped, no peer handle", zap.String("type", env.Type))
		return env, false
	}
	if err := peer.WriteJSON(env); err != nil {
		c.logger.Warn("peer write failed", zap.String("type", env.Type), zap.Error(err))
		return env, false
	}
	return env, true
}

// Decode filters and normalizes an inbound raw event. The origin gate
// runs first; untrusted origins are dropped with no log entry since
// unrelated traffic is expected. Trusted payloads must self-identify as
// peer-originated or they are platform noise, also dropped.
func (c *Channel) Decode(observedOrigin string, data []byte) (Envelope, bool) {
	if !c.policy.IsTrusted(observedOrigin) {
		return Envelope{}, false
	}

	var env Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		c.logger.Debug("undecodable payload from trusted origin", zap.Error(err))
		return Envelope{}, false
	}
	if env.Source != SourcePeer {
		return Envelope{}, false
	}
	return env, true
}
