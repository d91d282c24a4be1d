// Package resilience wraps outbound calls in a bounded retry policy and a
// circuit breaker. On sustained failure callers degrade to a fallback value
// at the gateway layer; the value is structurally valid but must never be
// read as a confirmed result.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable reports that a dependency call did not complete within the
// configured retry budget, or was rejected by an open circuit breaker.
var ErrUnavailable = errors.New("dependency unavailable")

// Config configures a Guard.
type Config struct {
	Name string

	// MaxRetries is the number of retries after the initial attempt, so a
	// guarded call is attempted at most MaxRetries+1 times.
	MaxRetries      int
	InitialInterval time.Duration

	// ConsecutiveFailures trips the breaker once reached.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.ConsecutiveFailures == 0 {
		c.ConsecutiveFailures = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
}

// Guard guards a single dependency operation returning T.
type Guard[T any] struct {
	name            string
	maxRetries      uint64
	initialInterval time.Duration
	breaker         *gobreaker.CircuitBreaker[T]
}

// NewGuard creates a new Guard from the given configuration.
func NewGuard[T any](cfg Config) *Guard[T] {
	cfg.applyDefaults()

	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
	}

	return &Guard[T]{
		name:            cfg.Name,
		maxRetries:      uint64(cfg.MaxRetries),
		initialInterval: cfg.InitialInterval,
		breaker:         gobreaker.NewCircuitBreaker[T](settings),
	}
}

// Execute runs fn through the circuit breaker, retrying failed attempts with
// exponential backoff until the retry budget is spent. An open breaker
// fast-fails the call without consuming the remaining retries.
func (g *Guard[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = g.initialInterval
	policy.MaxElapsedTime = 0

	result, err := backoff.RetryWithData(func() (T, error) {
		value, err := g.breaker.Execute(func() (T, error) {
			return fn(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return value, backoff.Permanent(err)
			}

			return value, err
		}

		return value, nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, g.maxRetries), ctx))
	if err != nil {
		return result, errors.Join(ErrUnavailable, err)
	}

	return result, nil
}

// State reports the current breaker state for observability.
func (g *Guard[T]) State() gobreaker.State {
	return g.breaker.State()
}
