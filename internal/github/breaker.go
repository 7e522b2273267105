package github

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/asteroid-belt/gitquest/internal/log"
	"github.com/asteroid-belt/gitquest/internal/metrics"
	"github.com/asteroid-belt/gitquest/internal/models"
)

// newBreaker opens after 5 consecutive failed fetches and probes again after
// 2 minutes. Auth failures, rate limits and caller cancellation are not
// failures of the remote side and are excluded from the counts.
func newBreaker(name string) *gobreaker.CircuitBreaker[*models.StatsSnapshot] {
	metrics.CircuitBreakerState.Set(0)

	return gobreaker.NewCircuitBreaker[*models.StatsSnapshot](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= 5
			if trip {
				log.Warn().Uint32("failures", counts.ConsecutiveFailures).Msg("github circuit breaker opening")
			}
			return trip
		},
		IsExcluded: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return true
			}
			switch KindOf(err) {
			case KindUnauthorized, KindRateLimited, KindNotFound:
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.Set(stateToFloat(to))
		},
	})
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
