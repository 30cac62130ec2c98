// Package circuitbreaker builds gobreaker instances from configuration.
package circuitbreaker

import (
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/pkg/config"
)

// minRequestsDefault applies when min_requests is unset.
const minRequestsDefault = 3

// New returns a breaker that trips once at least min_requests calls were made
// in the current interval and the failure ratio reaches failure_threshold.
// It returns nil when the breaker is disabled.
func New(name string, cfg config.CircuitBreakerConfig, log *zap.Logger) *gobreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return gobreaker.NewCircuitBreaker(Settings(name, cfg, log))
}

// Settings maps the config section onto gobreaker settings.
func Settings(name string, cfg config.CircuitBreakerConfig, log *zap.Logger) gobreaker.Settings {
	minRequests := uint32(cfg.MinRequests)
	if minRequests == 0 {
		minRequests = minRequestsDefault
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.MaxRequests),
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
}
