// Package http implements the host application's REST surface: session
// inspection, outbound messaging, context management, message log export,
// and the chat relay to the agent backend.
package http
