// Package id provides prefixed ULID generation for the bridge.
//
// ULIDs are lexicographically sortable, so connection and request IDs
// order by creation time in logs without extra timestamps. Prefixes keep
// log lines readable (conn_*, req_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ConnectionID identifies a peer WebSocket attachment.
type ConnectionID string

// RequestID identifies an API request.
type RequestID string

const (
	connectionPrefix = "conn"
	requestPrefix    = "req"
)

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with cryptographically secure entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewConnectionID generates a new connection ID.
func NewConnectionID() ConnectionID {
	return ConnectionID(Default().GenerateWithPrefix(connectionPrefix))
}

// NewRequestID generates a new request ID.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(requestPrefix))
}

// String methods for ID types.
func (id ConnectionID) String() string { return string(id) }
func (id RequestID) String() string    { return string(id) }
