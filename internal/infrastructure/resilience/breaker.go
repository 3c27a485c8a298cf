package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker open.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before allowing a
	// single trial call (half-open).
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes.
	OnStateChange func(name string, from, to State)
}

// Breaker implements a consecutive-failure circuit breaker. It guards the
// agent relay: when the peer backend is down, callers fail fast instead of
// stacking timeouts.
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// New creates a circuit breaker with the given settings.
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{name: name, settings: settings, state: StateClosed}
}

// Name returns the name of the circuit breaker.
func (b *Breaker) Name() string { return b.name }

// State returns the current state, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState(time.Now())
}

// Execute runs the call if the breaker accepts it. A call result of nil
// closes the breaker; an error counts toward the trip threshold. While
// open, Execute fails immediately with ErrCircuitOpen.
func (b *Breaker) Execute(call func() error) error {
	b.mu.Lock()
	now := time.Now()
	state := b.currentState(now)
	if state == StateOpen {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	b.mu.Unlock()

	err := call()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		b.setState(StateClosed, time.Now())
		return nil
	}

	b.failures++
	if b.currentState(time.Now()) == StateHalfOpen || b.failures >= b.settings.FailureThreshold {
		b.setState(StateOpen, time.Now())
	}
	return err
}

// currentState resolves cooldown expiry; callers hold the mutex.
func (b *Breaker) currentState(now time.Time) State {
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.settings.Cooldown {
		b.setState(StateHalfOpen, now)
	}
	return b.state
}

func (b *Breaker) setState(state State, now time.Time) {
	if b.state == state {
		return
	}
	prev := b.state
	b.state = state
	if state == StateOpen {
		b.openedAt = now
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
