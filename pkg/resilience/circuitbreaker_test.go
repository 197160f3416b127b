package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time without sleeping
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestBreaker(threshold int, cooldown time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{current: time.Unix(1000, 0)}
	breaker := NewCircuitBreaker("test", BreakerConfig{
		FailureThreshold: threshold,
		ResetTimeout:     cooldown,
	})
	breaker.now = clock.now
	return breaker, clock
}

func TestBreakerOpensAtFailureThreshold(t *testing.T) {
	breaker, _ := newTestBreaker(3, time.Minute)

	assert.Equal(t, StateClosed, breaker.State())

	breaker.RecordFailure()
	breaker.RecordFailure()
	assert.True(t, breaker.CanExecute(), "below threshold the breaker stays closed")

	breaker.RecordFailure()
	assert.False(t, breaker.CanExecute())
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerHalfOpensAfterCooldown(t *testing.T) {
	breaker, clock := newTestBreaker(1, time.Minute)

	breaker.RecordFailure()
	require.False(t, breaker.CanExecute())

	clock.advance(59 * time.Second)
	assert.False(t, breaker.CanExecute(), "cooldown has not elapsed yet")

	clock.advance(time.Second)
	assert.True(t, breaker.CanExecute())
	assert.Equal(t, StateHalfOpen, breaker.State())
}

func TestHalfOpenTrialSuccessCloses(t *testing.T) {
	breaker, clock := newTestBreaker(1, time.Minute)

	breaker.RecordFailure()
	clock.advance(time.Minute)
	require.Equal(t, StateHalfOpen, breaker.State())

	breaker.RecordSuccess()
	assert.Equal(t, StateClosed, breaker.State())
	assert.True(t, breaker.CanExecute())
}

func TestHalfOpenTrialFailureReopens(t *testing.T) {
	breaker, clock := newTestBreaker(1, time.Minute)

	breaker.RecordFailure()
	clock.advance(time.Minute)
	require.Equal(t, StateHalfOpen, breaker.State())

	breaker.RecordFailure()
	assert.Equal(t, StateOpen, breaker.State())
	assert.False(t, breaker.CanExecute())

	// A fresh cooldown applies after the failed trial.
	clock.advance(time.Minute)
	assert.True(t, breaker.CanExecute())
}

func TestSuccessResetsConsecutiveFailureCount(t *testing.T) {
	breaker, _ := newTestBreaker(3, time.Minute)

	breaker.RecordFailure()
	breaker.RecordFailure()
	breaker.RecordSuccess()
	breaker.RecordFailure()
	breaker.RecordFailure()

	assert.True(t, breaker.CanExecute(), "non-consecutive failures must not open the breaker")
}

func TestRegistryScopesBreakersByName(t *testing.T) {
	registry := NewBreakerRegistry(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	registry.Get("openai").RecordFailure()

	assert.False(t, registry.Get("openai").CanExecute())
	assert.True(t, registry.Get("postgres").CanExecute(), "separate dependencies have separate breakers")
	assert.Same(t, registry.Get("openai"), registry.Get("openai"))
}

func TestBreakerConfigDefaultsApplied(t *testing.T) {
	breaker := NewCircuitBreaker("test", BreakerConfig{})
	assert.Equal(t, DefaultBreakerConfig().FailureThreshold, breaker.config.FailureThreshold)
	assert.Equal(t, DefaultBreakerConfig().ResetTimeout, breaker.config.ResetTimeout)
}
