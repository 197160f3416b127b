package resilience

import (
	"context"

	"github.com/pipewise/maestro/pkg/logging"
)

// ErrCircuitOpen is returned by Execute when the breaker short-circuits
// the call
var ErrCircuitOpen = New(KindExternalService, SeverityHigh, "circuit breaker is open")

// Context bundles the circuit-breaker registry and logger used to guard
// calls to external dependencies. It is constructed explicitly and passed
// into agent invocations rather than held in package globals.
type Context struct {
	breakers *BreakerRegistry
	logger   logging.Logger
}

// Option configures a resilience Context
type Option func(*Context)

// WithBreakerConfig sets the configuration used for new circuit breakers
func WithBreakerConfig(config BreakerConfig) Option {
	return func(r *Context) {
		r.breakers = NewBreakerRegistry(config)
	}
}

// WithSharedRegistry uses an existing breaker registry, so independent
// workflow runs share breaker state per external-service name
func WithSharedRegistry(registry *BreakerRegistry) Option {
	return func(r *Context) {
		r.breakers = registry
	}
}

// WithLogger sets the logger used to record guarded failures
func WithLogger(logger logging.Logger) Option {
	return func(r *Context) {
		r.logger = logger
	}
}

// NewContext creates a resilience context with default breaker settings
func NewContext(options ...Option) *Context {
	rc := &Context{
		breakers: NewBreakerRegistry(DefaultBreakerConfig()),
		logger:   logging.New(),
	}

	for _, option := range options {
		option(rc)
	}

	return rc
}

// Breaker returns the circuit breaker guarding the named dependency
func (r *Context) Breaker(dependency string) *CircuitBreaker {
	return r.breakers.Get(dependency)
}

// Execute runs fn under the breaker guarding the named dependency. When the
// breaker is open the call is short-circuited and ErrCircuitOpen returned;
// otherwise the call's outcome is recorded on the breaker and the error, if
// any, propagated to the caller.
func (r *Context) Execute(ctx context.Context, dependency string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	breaker := r.breakers.Get(dependency)

	if !breaker.CanExecute() {
		r.logger.Warn(ctx, "Call short-circuited by open circuit breaker", map[string]interface{}{
			"dependency": dependency,
		})
		return nil, Wrap(KindExternalService, SeverityHigh, "call short-circuited", ErrCircuitOpen).
			WithContext("dependency", dependency)
	}

	result, err := fn(ctx)
	if err != nil {
		breaker.RecordFailure()
		return nil, err
	}

	breaker.RecordSuccess()
	return result, nil
}

// SafeExecute runs fn under the breaker guarding the named dependency and
// never propagates an error: on any failure (including an open breaker) the
// caller-supplied fallback is returned and the error recorded for
// observability.
func (r *Context) SafeExecute(ctx context.Context, dependency string, fn func(context.Context) (interface{}, error), fallback interface{}) interface{} {
	result, err := r.Execute(ctx, dependency, fn)
	if err != nil {
		r.logger.Error(ctx, "Guarded call failed, returning fallback", map[string]interface{}{
			"dependency": dependency,
			"error":      err.Error(),
			"kind":       string(KindOf(err)),
		})
		return fallback
	}
	return result
}
