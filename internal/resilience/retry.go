package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds re-execution of a fallible operation. Delay is
// constant between attempts; MaxAttempts counts the first call.
type RetryPolicy struct {
	MaxAttempts uint
	BaseDelay   time.Duration

	// ShouldRetry overrides the default predicate (transient network
	// failures only). Validation and authorization failures are never
	// retried, regardless of this predicate.
	ShouldRetry func(error) bool
}

// DefaultRetryPolicy matches the outbound provider-call contract.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond}
}

func (p RetryPolicy) retryable(err error) bool {
	kind := Classify(err)
	if kind == KindValidation || kind == KindAuthorization {
		return false
	}
	if p.ShouldRetry != nil {
		return p.ShouldRetry(err)
	}
	return kind.Retryable()
}

// Retry executes op under the policy, returning the last failure once
// attempts are exhausted or a non-retryable error occurs.
func Retry[T any](ctx context.Context, p RetryPolicy, op func() (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	wrapped := func() (T, error) {
		v, err := op()
		if err != nil && !p.retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	return backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.BaseDelay)),
		backoff.WithMaxTries(attempts),
	)
}
