package controller

import "github.com/GriffinCanCode/AdkBridge/backend/internal/bridge/channel"

// messageLog is the append-only record of every envelope sent or accepted,
// in the order handlers observed them. It is observational only; nothing
// reads it to drive control flow.
//
// Retention: with limit 0 the log grows for the controller's lifetime,
// matching the observed behavior of long-lived sessions. A positive limit
// turns it into a sliding window that discards the oldest entries first.
type messageLog struct {
	limit   int
	entries []channel.Envelope
}

func newMessageLog(limit int) *messageLog {
	return &messageLog{limit: limit}
}

func (l *messageLog) append(env channel.Envelope) {
	l.entries = append(l.entries, env)
	if l.limit > 0 && len(l.entries) > l.limit {
		overflow := len(l.entries) - l.limit
		l.entries = append(l.entries[:0], l.entries[overflow:]...)
	}
}

func (l *messageLog) snapshot() []channel.Envelope {
	out := make([]channel.Envelope, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *messageLog) len() int {
	return len(l.entries)
}
