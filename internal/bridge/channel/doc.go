// Package channel wraps the raw cross-context transport between the host
// and the embedded agent UI.
//
// Outbound: envelopes are stamped with the parent source marker and a
// sender timestamp, then written to the attached peer handle. With no
// handle attached the send is a silent no-op.
//
// Inbound: raw events pass the origin policy gate, decode against the fixed
// envelope shape, and must self-identify as peer-originated before they
// reach application logic. Everything else is dropped without side effects.
package channel
