package retry

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/pipewise/maestro/pkg/resilience"
)

// Executor retries failed calls with exponential backoff according to a
// Policy. Validation errors are never retried; only errors classified as
// external-service failures are.
type Executor struct {
	policy *Policy
}

// NewExecutor creates an executor for the given policy
func NewExecutor(policy *Policy) *Executor {
	if policy == nil {
		policy = NewPolicy()
	}
	return &Executor{policy: policy}
}

// Execute runs fn, retrying per the policy until it succeeds, the attempt
// budget is exhausted, or the context is cancelled. A non-retryable error
// stops the retry loop immediately.
func (e *Executor) Execute(ctx context.Context, fn func(context.Context) error) error {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = e.policy.InitialInterval
	exponential.Multiplier = e.policy.Multiplier
	exponential.MaxInterval = e.policy.MaxInterval

	var policy backoff.BackOff = exponential
	if e.policy.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(exponential, uint64(e.policy.MaxAttempts-1))
	}

	operation := func() error {
		err := fn(ctx)
		if err != nil && !resilience.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}
