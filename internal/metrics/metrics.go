package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog provider calls
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geekhub_provider_requests_total",
			Help: "Total number of catalog provider requests",
		},
		[]string{"provider", "operation", "outcome"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geekhub_provider_request_duration_seconds",
			Help:    "Duration of catalog provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	ProviderBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geekhub_provider_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	// Catalog cache
	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geekhub_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geekhub_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geekhub_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geekhub_api_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
		[]string{"route"},
	)

	// Stats
	StatsSummaryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geekhub_stats_summary_duration_seconds",
			Help:    "Time spent building a stats summary",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scope"},
	)

	InvitationsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geekhub_invitations_cleaned_total",
			Help: "Expired invitations removed by the cleanup job",
		},
	)
)

// RecordProviderRequest records one provider call. outcome is "ok",
// "http_error", "error" or "rejected".
func RecordProviderRequest(provider, operation, outcome string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CatalogCacheLookups.WithLabelValues(kind, result).Inc()
}

func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordRateLimited(route string) {
	RateLimitedTotal.WithLabelValues(route).Inc()
}

func SetBreakerState(provider string, state int) {
	ProviderBreakerState.WithLabelValues(provider).Set(float64(state))
}
