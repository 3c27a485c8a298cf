package contextstore

import (
	"fmt"
	"sync"
)

// Context is the shared key-value state synchronized between host and peer.
// The key set is fixed; every key is optional.
type Context map[string]string

// Keys the peer understands. An update carrying anything else is a caller
// bug, not peer noise, so it is rejected loudly.
const (
	KeyAgentName     = "agentName"
	KeySessionToken  = "sessionToken"
	KeyUserID        = "userId"
	KeyApplicationID = "applicationId"
	KeyControlID     = "controlId"
)

var knownKeys = map[string]struct{}{
	KeyAgentName:     {},
	KeySessionToken:  {},
	KeyUserID:        {},
	KeyApplicationID: {},
	KeyControlID:     {},
}

// Store holds the last-known shared context and applies partial updates as
// shallow merges: keys present in the update overwrite, absent keys are
// untouched. No history is retained beyond the current snapshot.
type Store struct {
	mu  sync.RWMutex
	ctx Context
}

// New creates a store seeded with the initial context. Unknown keys in the
// seed are rejected the same way updates are.
func New(initial Context) (*Store, error) {
	if err := validate(initial); err != nil {
		return nil, err
	}
	s := &Store{ctx: Context{}}
	for k, v := range initial {
		s.ctx[k] = v
	}
	return s, nil
}

// Merge applies a partial update and reports whether anything changed.
func (s *Store) Merge(partial Context) (bool, error) {
	if err := validate(partial); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for k, v := range partial {
		if prev, ok := s.ctx[k]; !ok || prev != v {
			s.ctx[k] = v
			changed = true
		}
	}
	return changed, nil
}

// Reset discards all keys.
func (s *Store) Reset() {
	s.mu.Lock()
	s.ctx = Context{}
	s.mu.Unlock()
}

// Snapshot returns a copy of the current context. Callers may not mutate
// the store through it.
func (s *Store) Snapshot() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Context, len(s.ctx))
	for k, v := range s.ctx {
		snap[k] = v
	}
	return snap
}

func validate(partial Context) error {
	for k := range partial {
		if _, ok := knownKeys[k]; !ok {
			return fmt.Errorf("unknown context key %q", k)
		}
	}
	return nil
}
