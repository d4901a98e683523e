package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"geekhub/internal/logging"
	"geekhub/internal/metrics"
	"geekhub/models"
)

// BreakerConfig tunes the per-provider circuit breaker.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Interval         time.Duration
	HalfOpenRequests uint32
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.HalfOpenRequests == 0 {
		c.HalfOpenRequests = 1
	}
	return c
}

// newBreaker builds a breaker that trips on consecutive transport failures
// and 5xx answers. 4xx answers are the caller's problem and do not count.
func newBreaker(provider models.Provider, cfg BreakerConfig) *gobreaker.CircuitBreaker[[]byte] {
	cfg = cfg.withDefaults()
	log := logging.With("component", "catalog", "provider", string(provider))
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        string(provider),
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var upstream *UpstreamError
			if errors.As(err, &upstream) {
				return upstream.Status > 0 && upstream.Status < http.StatusInternalServerError
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("provider circuit breaker state changed", "from", from.String(), "to", to.String())
			metrics.SetBreakerState(name, int(to))
		},
	})
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
