// Package resilience guards calls to the API with a circuit breaker.
// Calls are never retried automatically; the user re-submits.
package resilience

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned instead of calling the API while it is
// considered down.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// Breaker wraps a gobreaker.CircuitBreaker. A nil *Breaker runs calls
// unguarded.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewCircuitBreaker trips after 5 requests with at least 60% failures.
// isFailure decides which errors count; nil counts every error.
func NewCircuitBreaker(name string, isFailure func(error) bool) *Breaker {
	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if isFailure == nil {
				return false
			}
			return !isFailure(err)
		},
	})}
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() error) error {
	if b == nil {
		return fn()
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ErrCircuitOpen{Service: b.cb.Name()}
	}
	return err
}

// State reports the breaker state for the status line.
func (b *Breaker) State() string {
	if b == nil {
		return "disabled"
	}
	return b.cb.State().String()
}
