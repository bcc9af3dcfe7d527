package upsert

import (
	"time"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/logger"
	"gscsync/internal/platform/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the optional destination circuit breaker
type BreakerSettings struct {
	// Failures is the consecutive transient failures that open the circuit; 0 disables it
	Failures uint32
	// Timeout is how long the circuit stays open before a probe
	Timeout time.Duration
}

func newBreaker(name string, s BreakerSettings, m *metrics.Sync) *gobreaker.CircuitBreaker[any] {
	if s.Failures == 0 {
		return nil
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	m.SetBreaker(name, 0)
	log := logger.Named("upsert")
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			m.SetBreaker(name, stateValue(to))
		},
		// only transport trouble counts against the destination; a rejected record does not
		IsSuccessful: func(err error) bool {
			return err == nil || !perr.IsTransient(err)
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
