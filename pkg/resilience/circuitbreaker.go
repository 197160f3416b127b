package resilience

import (
	"sync"
	"time"
)

// State represents the state of a circuit breaker
type State string

const (
	// StateClosed indicates calls are allowed
	StateClosed State = "closed"

	// StateOpen indicates calls are short-circuited
	StateOpen State = "open"

	// StateHalfOpen indicates one trial call is allowed after the cooldown
	StateHalfOpen State = "half_open"
)

// BreakerConfig configures a circuit breaker
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker
	FailureThreshold int

	// ResetTimeout is the cooldown before an open breaker allows a trial
	ResetTimeout time.Duration
}

// DefaultBreakerConfig returns the default breaker configuration
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// CircuitBreaker guards a single named external dependency. Closed allows
// calls; after FailureThreshold consecutive failures it opens and
// short-circuits calls; after ResetTimeout it half-opens and allows one
// trial call whose outcome decides the next state.
type CircuitBreaker struct {
	name   string
	config BreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time

	// now is replaceable in tests
	now func() time.Time
}

// NewCircuitBreaker creates a circuit breaker for the named dependency
func NewCircuitBreaker(name string, config BreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = DefaultBreakerConfig().ResetTimeout
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Name returns the name of the guarded dependency
func (b *CircuitBreaker) Name() string {
	return b.name
}

// State returns the breaker's current state, accounting for cooldown expiry
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState transitions open to half-open once the cooldown has elapsed.
// Callers must hold b.mu.
func (b *CircuitBreaker) currentState() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.config.ResetTimeout {
		b.state = StateHalfOpen
	}
	return b.state
}

// CanExecute reports whether a call to the dependency is currently allowed
func (b *CircuitBreaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState() != StateOpen
}

// RecordSuccess records a successful call, closing the breaker
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = StateClosed
}

// RecordFailure records a failed call. A failure during a half-open trial
// reopens the breaker immediately; in the closed state the breaker opens
// once the consecutive-failure threshold is reached.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = b.now()
	default:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
}

// BreakerRegistry holds one circuit breaker per named external dependency.
// A registry may be scoped to a single workflow run, or shared process-wide
// so breakers reflect real external-service health.
type BreakerRegistry struct {
	config BreakerConfig

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerRegistry creates a registry that builds breakers with the given
// configuration
func NewBreakerRegistry(config BreakerConfig) *BreakerRegistry {
	return &BreakerRegistry{
		config:   config,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for the named dependency, creating it on first use
func (r *BreakerRegistry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	breaker, ok := r.breakers[name]
	if !ok {
		breaker = NewCircuitBreaker(name, r.config)
		r.breakers[name] = breaker
	}
	return breaker
}
