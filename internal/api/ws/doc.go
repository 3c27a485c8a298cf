// Package ws exposes the embedded UI's transport: a WebSocket endpoint
// whose connection doubles as the peer handle for the message channel.
// Upgrades are gated by the origin policy and every inbound frame passes
// through the controller, which applies the policy again per message.
package ws
