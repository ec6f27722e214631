package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/bnema/freepackages/internal/logging"
	"github.com/bnema/freepackages/internal/metrics"
)

const (
	breakerTripAfter   = 5
	breakerOpenTimeout = 30 * time.Second
)

func newBreaker(name string) *gobreaker.CircuitBreaker[any] {
	metrics.SetCircuitBreakerState(name, int(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		// A rejected credential or a caller giving up says nothing about the
		// health of the API.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrUnauthorized) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.SetCircuitBreakerState(name, int(to))
		},
	})
}

func (c *apiClient) execute(fn func() (any, error)) (any, error) {
	result, err := c.breaker.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordBreakerRequest(c.name, "rejected")
			logging.Warn().Err(err).Str("breaker", c.name).Msg("request rejected by circuit breaker")
		} else {
			metrics.RecordBreakerRequest(c.name, "failure")
		}
		return nil, err
	}

	metrics.RecordBreakerRequest(c.name, "success")
	return result, nil
}

func castResult[T any](result any, op string) (T, error) {
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("circuit breaker: unexpected result type for %s", op)
	}
	return typed, nil
}
