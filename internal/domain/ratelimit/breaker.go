package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/xecbot/xecbot-api/internal/config"
)

// BreakerSettings tune the circuit around a counter.
type BreakerSettings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// DefaultBreakerSettings opens after 5 straight failures for 30 seconds.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{Name: name, ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

// BreakerCounter fails fast while the backend keeps failing. An open
// circuit never means "allowed".
type BreakerCounter struct {
	next Counter
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerCounter wraps next.
func NewBreakerCounter(next Counter, s BreakerSettings) *BreakerCounter {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		// Missing configuration and caller cancellation say nothing about
		// the backend's health.
		IsSuccessful: func(err error) bool {
			var missing *config.MissingEnvError
			return err == nil || errors.As(err, &missing) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("backend", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("rate limit circuit breaker state changed")
		},
	})
	return &BreakerCounter{next: next, cb: cb}
}

func (b *BreakerCounter) Consume(ctx context.Context, userID, ip string, window time.Duration, max int) (bool, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Consume(ctx, userID, ip, window, max)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err != nil {
		return false, err
	}
	allowed, _ := res.(bool)
	return allowed, nil
}

// State exposes the breaker state for health reporting.
func (b *BreakerCounter) State() string {
	return b.cb.State().String()
}
