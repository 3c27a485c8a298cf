package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3, Cooldown: time.Minute})

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Execute(func() error { return nil }))
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		assert.Error(t, b.Execute(func() error { return errors.New("failed") }))
	}
	assert.Equal(t, StateOpen, b.State())

	// While open, calls fail fast without running.
	ran := false
	err := b.Execute(func() error { ran = true; return nil })
	assert.Equal(t, ErrCircuitOpen, err)
	assert.False(t, ran)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3, Cooldown: time.Minute})

	_ = b.Execute(func() error { return errors.New("failed") })
	_ = b.Execute(func() error { return errors.New("failed") })
	require.NoError(t, b.Execute(func() error { return nil }))
	_ = b.Execute(func() error { return errors.New("failed") })
	_ = b.Execute(func() error { return errors.New("failed") })

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 2, Cooldown: 10 * time.Millisecond})

	_ = b.Execute(func() error { return errors.New("failed") })
	_ = b.Execute(func() error { return errors.New("failed") })
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	// The trial call closes the breaker.
	require.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 2, Cooldown: 10 * time.Millisecond})

	_ = b.Execute(func() error { return errors.New("failed") })
	_ = b.Execute(func() error { return errors.New("failed") })
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	assert.Error(t, b.Execute(func() error { return errors.New("still down") }))
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	b := New("relay", Settings{
		FailureThreshold: 2,
		Cooldown:         10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = b.Execute(func() error { return errors.New("failed") })
	_ = b.Execute(func() error { return errors.New("failed") })
	time.Sleep(20 * time.Millisecond)
	_ = b.State()

	assert.Contains(t, transitions, "closed->open")
	assert.Contains(t, transitions, "open->half-open")
}
