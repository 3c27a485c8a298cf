package controller

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/channel"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/contextstore"
	"github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/probe"
)

// State is the connection state of the bridge session. Exactly one value
// holds at any instant.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// Snapshot is the observable view of the session handed to subscribers and
// the REST surface: current state, current context, and the message log in
// append order.
type Snapshot struct {
	State    State                `json:"connection_state"`
	Context  contextstore.Context `json:"context"`
	Messages []channel.Envelope   `json:"message_log"`
}

// Recorder receives bridge telemetry. Implemented by monitoring.Metrics;
// nil disables recording.
type Recorder interface {
	RecordEnvelope(direction, msgType string)
	RecordProbe(reachable bool)
	SetConnectionState(state string)
}

// Config assembles a controller from its collaborators.
type Config struct {
	Channel *channel.Channel
	Store   *contextstore.Store
	Probe   *probe.Probe
	Logger  *zap.Logger
	Metrics Recorder

	// LogLimit bounds the message log; 0 keeps every envelope for the
	// lifetime of the controller.
	LogLimit int
}

// Controller owns the connection state machine. Three asynchronous sources
// feed it: probe results, inbound peer envelopes, and application calls.
// A single mutex serializes every handler; each runs to completion before
// the next, so no two transitions are ever in flight together.
type Controller struct {
	channel *channel.Channel
	store   *contextstore.Store
	probe   *probe.Probe
	logger  *zap.Logger
	metrics Recorder

	mu        sync.Mutex
	state     State
	log       *messageLog
	lastError interface{}
	subs      map[int]func(Snapshot)
	nextSub   int
	handlers  map[string][]func(channel.Envelope)

	wg sync.WaitGroup
}

// New creates a controller in the disconnected state.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		channel:  cfg.Channel,
		store:    cfg.Store,
		probe:    cfg.Probe,
		logger:   logger,
		metrics:  cfg.Metrics,
		state:    StateDisconnected,
		log:      newMessageLog(cfg.LogLimit),
		subs:     make(map[int]func(Snapshot)),
		handlers: make(map[string][]func(channel.Envelope)),
	}
}

// Start launches the health probe and its consumer. The controller runs
// until Close.
func (c *Controller) Start(ctx context.Context) {
	if c.probe == nil {
		return
	}
	c.probe.Start(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for status := range c.probe.Results() {
			c.onProbe(status)
		}
	}()
}

// Close stops the probe and waits for in-flight handlers to drain. The
// state machine has no terminal state; Close tears down timers and
// listeners, nothing more.
func (c *Controller) Close() {
	if c.probe != nil {
		c.probe.Stop()
	}
	c.wg.Wait()

	c.mu.Lock()
	c.subs = make(map[int]func(Snapshot))
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the payload of the most recent peer-reported error,
// retained for diagnostics.
func (c *Controller) LastError() interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Snapshot returns copies of the current state, context, and message log.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers an observer called with a fresh snapshot after every
// state, context, or log change. Returns the unsubscribe function.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// OnEvent registers an application callback for a specific envelope type.
// The controller routes the raw envelope; payload semantics stay with the
// application.
func (c *Controller) OnEvent(msgType string, fn func(channel.Envelope)) {
	c.mu.Lock()
	c.handlers[msgType] = append(c.handlers[msgType], fn)
	c.mu.Unlock()
}

// AttachPeer installs the peer handle once the embedding surface has
// finished loading.
func (c *Controller) AttachPeer(p channel.Peer) {
	c.channel.AttachPeer(p)
}

// DetachPeer removes the peer handle on surface teardown.
func (c *Controller) DetachPeer(p channel.Peer) {
	c.channel.DetachPeer(p)
}

// SendMessage dispatches an envelope to the peer. Permissive by design: it
// succeeds even while disconnected, and an envelope that finds no peer
// handle is simply not delivered and not logged.
func (c *Controller) SendMessage(env channel.Envelope) bool {
	c.mu.Lock()
	sent := c.sendLocked(env)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if sent {
		c.notify(snap)
	}
	return sent
}

// UpdateContext shallow-merges the partial update into the context store
// and unconditionally attempts a context_update carrying the merged
// snapshot, regardless of connection state.
func (c *Controller) UpdateContext(partial contextstore.Context) error {
	c.mu.Lock()
	if _, err := c.store.Merge(partial); err != nil {
		c.mu.Unlock()
		return err
	}
	c.sendLocked(channel.Envelope{
		Type:    channel.TypeContextUpdate,
		Payload: c.store.Snapshot(),
	})
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// StartValidation asks the peer to begin validating with the given payload.
func (c *Controller) StartValidation(payload interface{}) bool {
	return c.SendMessage(channel.Envelope{
		Type:    channel.TypeStartValidation,
		Payload: payload,
	})
}

// ClearContext resets the shared context and tells the peer to do the same.
func (c *Controller) ClearContext() {
	c.mu.Lock()
	c.store.Reset()
	c.sendLocked(channel.Envelope{Type: channel.TypeClearContext})
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Receive is the inbound entry point for raw events from the transport.
// Filtered events vanish without side effects; accepted envelopes are
// logged, may transition the state machine, and are routed to any
// registered application callbacks.
func (c *Controller) Receive(observedOrigin string, data []byte) {
	env, ok := c.channel.Decode(observedOrigin, data)
	if !ok {
		return
	}

	c.mu.Lock()
	c.appendLocked(env, "inbound")

	switch env.Type {
	case channel.TypeReady:
		c.transitionLocked(StateConnected)
		// The handshake reply: current context snapshot rides along so a
		// freshly loaded peer starts from the host's state.
		c.sendLocked(channel.Envelope{
			Type:    channel.TypeInitialize,
			Payload: c.store.Snapshot(),
		})
	case channel.TypeError:
		c.lastError = env.Payload
		c.transitionLocked(StateError)
		c.logger.Warn("peer reported error", zap.Any("payload", env.Payload))
	default:
		// agent_response, status_update, navigation_request, and unknown
		// extensions: logged, routed, never state-affecting.
	}

	handlers := append([]func(channel.Envelope){}, c.handlers[env.Type]...)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(env)
	}
	c.notify(snap)
}

// onProbe folds a reachability outcome into the state machine. Unreachable
// forces error from any state; Reachable recovers error/disconnected to
// connected and is idempotent while connected.
func (c *Controller) onProbe(status probe.Status) {
	if c.metrics != nil {
		c.metrics.RecordProbe(status == probe.Reachable)
	}

	c.mu.Lock()
	var changed bool
	if status == probe.Unreachable {
		changed = c.transitionLocked(StateError)
	} else if c.state != StateConnected {
		changed = c.transitionLocked(StateConnected)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.notify(snap)
	}
}

func (c *Controller) sendLocked(env channel.Envelope) bool {
	stamped, sent := c.channel.Send(env)
	if sent {
		c.appendLocked(stamped, "outbound")
	}
	return sent
}

func (c *Controller) appendLocked(env channel.Envelope, direction string) {
	c.log.append(env)
	if c.metrics != nil {
		c.metrics.RecordEnvelope(direction, env.Type)
	}
}

func (c *Controller) transitionLocked(next State) bool {
	if c.state == next {
		return false
	}
	prev := c.state
	c.state = next
	if c.metrics != nil {
		c.metrics.SetConnectionState(string(next))
	}
	c.logger.Info("connection state changed",
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
	return true
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:    c.state,
		Context:  c.store.Snapshot(),
		Messages: c.log.snapshot(),
	}
}

func (c *Controller) notify(snap Snapshot) {
	c.mu.Lock()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
