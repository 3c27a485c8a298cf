// Package server is the composition root: it builds the bridge from
// configuration and mounts the REST, metrics, and WebSocket surfaces.
package server
