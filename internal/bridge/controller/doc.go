/*
Package controller implements the connection state machine at the heart of
the bridge.

# States

	disconnected (initial) -> connected -> error

error and disconnected are reachable from anywhere; connected only from
disconnected or error. There is no terminal state: the machine runs for the
controller's lifetime and Close only tears down the probe and observers.

# Transitions

  - peer "ready" envelope: any state -> connected, replying with an
    initialize envelope carrying the current context snapshot
  - peer "error" envelope: any state -> error, payload retained
  - probe Unreachable: any state -> error
  - probe Reachable: error/disconnected -> connected (idempotent otherwise)

Other envelope types are logged and routed to application callbacks without
touching the state. Unknown types are accepted: forward compatibility with
peer-defined extensions is a requirement, not an error condition.

# Concurrency

Probe results, inbound envelopes, and application calls all funnel through
one mutex. Handlers are synchronous and run to completion, so the state and
context can never be mutated by two transitions at once. Keep handlers
fast; real work belongs in the application callbacks' own goroutines.
*/
package controller
