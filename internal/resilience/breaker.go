package resilience

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrBreakerOpen is returned without invoking the wrapped operation
// while the breaker is open.
var ErrBreakerOpen = New(KindNetwork, "circuit breaker open")

// Breaker guards a single upstream operation (one instance per
// provider endpoint). Transitions are CLOSED -> OPEN after
// failureThreshold consecutive failures, OPEN -> HALF_OPEN after
// resetTimeout, and HALF_OPEN resolves on a single trial call.
// Safe for concurrent use.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

func NewBreaker(name string, failureThreshold uint32, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		cb: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     resetTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failureThreshold
			},
		}),
	}
}

// Do runs op through the breaker, mapping open-state rejections to
// ErrBreakerOpen.
func (b *Breaker) Do(op func() (any, error)) (any, error) {
	v, err := b.cb.Execute(op)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return v, ErrBreakerOpen
	}
	return v, err
}

// State reports the breaker state for logging and health output.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
