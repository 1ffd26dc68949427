package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "country_insights"

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Outbound provider requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of outbound provider requests, including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state per provider (0 closed, 1 half-open, 2 open).",
	}, []string{"provider"})

	aggregations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregations_total",
		Help:      "Country detail aggregations by terminal outcome.",
	}, []string{"outcome"})

	probes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "upstream_up",
		Help:      "Result of the latest upstream probe (1 healthy, 0 unhealthy).",
	}, []string{"provider"})
)

// ObserveUpstream records one outbound call.
func ObserveUpstream(provider, outcome string, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(provider, outcome).Inc()
	upstreamDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// SetBreakerState records a circuit breaker transition.
func SetBreakerState(provider string, state int) {
	breakerState.WithLabelValues(provider).Set(float64(state))
}

// ObserveAggregation counts a terminal aggregation outcome.
func ObserveAggregation(outcome string) {
	aggregations.WithLabelValues(outcome).Inc()
}

// ObserveProbe records the latest probe result of a provider.
func ObserveProbe(provider string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	probes.WithLabelValues(provider).Set(v)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
