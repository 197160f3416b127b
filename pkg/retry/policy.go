package retry

import "time"

// Policy defines how failed calls are retried
type Policy struct {
	// InitialInterval is the delay before the first retry
	InitialInterval time.Duration

	// Multiplier scales the interval after each attempt
	Multiplier float64

	// MaxInterval caps the delay between retries
	MaxInterval time.Duration

	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int
}

// Option represents a retry policy option
type Option func(*Policy)

// WithInitialInterval sets the delay before the first retry
func WithInitialInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.InitialInterval = interval
	}
}

// WithMultiplier sets the backoff multiplier
func WithMultiplier(multiplier float64) Option {
	return func(p *Policy) {
		p.Multiplier = multiplier
	}
}

// WithMaxInterval caps the delay between retries
func WithMaxInterval(interval time.Duration) Option {
	return func(p *Policy) {
		p.MaxInterval = interval
	}
}

// WithMaxAttempts sets the total number of attempts
func WithMaxAttempts(attempts int) Option {
	return func(p *Policy) {
		p.MaxAttempts = attempts
	}
}

// NewPolicy creates a retry policy with default values
func NewPolicy(opts ...Option) *Policy {
	policy := &Policy{
		InitialInterval: time.Second,
		Multiplier:      2.0,
		MaxInterval:     100 * time.Second,
		MaxAttempts:     3,
	}

	for _, opt := range opts {
		opt(policy)
	}

	return policy
}
