// Package breaker builds the circuit breakers that guard outbound providers.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Settings tunes a breaker. Zero values take the defaults below.
type Settings struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
	// OnStateChange is notified in addition to the log line.
	OnStateChange func(name string, from, to gobreaker.State)
}

const (
	defaultConsecutiveFailures = 5
	defaultOpenTimeout         = 30 * time.Second
)

// New returns a breaker named after the provider it protects. Caller
// cancellation does not count as a provider failure.
func New[T any](name string, s Settings, logger *slog.Logger) *gobreaker.CircuitBreaker[T] {
	if logger == nil {
		logger = slog.Default()
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = defaultConsecutiveFailures
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = defaultOpenTimeout
	}
	logger = logger.With("component", "breaker", "breaker", name)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit state changed", "from", from.String(), "to", to.String())
			if s.OnStateChange != nil {
				s.OnStateChange(name, from, to)
			}
		},
	})
}

// IsOpen reports whether err came from a rejecting breaker rather than the
// provider itself.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
