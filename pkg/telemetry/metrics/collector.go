// Package metrics exposes Courier's operational metrics in Prometheus
// format: request outcomes and latency, per-provider attempt results,
// fallback depth, cache effectiveness, and provider health.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pagewell-hq/courier/pkg/fetch"
)

// namespace prefixes every metric name.
const namespace = "courier"

// Collector owns the registry and all metric families.
type Collector struct {
	registry *prometheus.Registry

	// Request-level metrics.
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fallbackDepth   prometheus.Histogram
	costUnits       prometheus.Counter

	// Provider-level metrics.
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	providerErrors   *prometheus.CounterVec
	providerHealth   *prometheus.GaugeVec

	// Cache metrics.
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewCollector creates and registers all metric families on a fresh
// registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Completed fetch requests by terminal outcome and content class",
			},
			[]string{"outcome", "class"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "End-to-end fetch request latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),

		fallbackDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fallback_depth",
				Help:      "Number of providers abandoned before the request resolved",
				Buckets:   []float64{0, 1, 2, 3, 4, 5},
			},
		),

		costUnits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cost_units_total",
				Help:      "Estimated provider cost units consumed",
			},
		),

		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_attempts_total",
				Help:      "Provider invocations by attempt outcome",
			},
			[]string{"provider", "outcome"},
		),

		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_latency_seconds",
				Help:      "Single provider invocation latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),

		providerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Provider failures by error class",
			},
			[]string{"provider", "error_type"},
		),

		providerHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Fetch requests served from the cache layer",
			},
		),

		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Fetch requests that missed the cache layer",
			},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.fallbackDepth,
		c.costUnits,
		c.providerRequests,
		c.providerLatency,
		c.providerErrors,
		c.providerHealth,
		c.cacheHits,
		c.cacheMisses,
	)

	return c
}

// ObserveResult records everything a completed fetch result carries:
// the terminal outcome, total latency, fallback depth, per-attempt
// provider outcomes and latencies, and cost units.
func (c *Collector) ObserveResult(result *fetch.Result) {
	c.requestsTotal.WithLabelValues(string(result.Outcome), string(result.Class)).Inc()
	c.requestDuration.WithLabelValues(string(result.Outcome)).Observe(result.Duration().Seconds())
	c.fallbackDepth.Observe(float64(result.Fallbacks()))
	c.costUnits.Add(result.CostUnits)

	if result.FromCache {
		c.cacheHits.Inc()
	} else {
		c.cacheMisses.Inc()
	}

	for _, attempt := range result.Attempts {
		c.providerRequests.WithLabelValues(attempt.Provider, string(attempt.Outcome)).Inc()
		c.providerLatency.WithLabelValues(attempt.Provider).Observe(attempt.Duration().Seconds())
		if attempt.Outcome != fetch.AttemptSuccess {
			c.providerErrors.WithLabelValues(attempt.Provider, string(attempt.Outcome)).Inc()
		}
	}
}

// SetProviderHealth updates the health gauge for a provider.
func (c *Collector) SetProviderHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.providerHealth.WithLabelValues(provider).Set(value)
}

// Handler returns the Prometheus exposition handler for the collector's
// registry, for mounting at /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Registry exposes the underlying registry, used in tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
