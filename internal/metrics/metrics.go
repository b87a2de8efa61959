// Package metrics holds the Prometheus collectors of the proxy.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chytanka"

var (
	registry = prometheus.NewRegistry()

	upstreamRequests = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Calls to generative AI providers, partitioned by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	upstreamDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of generative AI provider calls.",
			Buckets:   []float64{.1, .25, .5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"operation"},
	)
	speechCache = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_cache_lookups_total",
			Help:      "Speech cache lookups by result.",
		},
		[]string{"result"},
	)
	fallbackWords = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_words_total",
			Help:      "Words served from the fallback pool after generation failed.",
		},
	)
	rateLimited = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveUpstream records one provider call that started at start.
func ObserveUpstream(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamRequests.WithLabelValues(operation, outcome).Inc()
	upstreamDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// SpeechCacheLookup records a cache hit or miss.
func SpeechCacheLookup(hit bool) {
	if hit {
		speechCache.WithLabelValues("hit").Inc()
		return
	}
	speechCache.WithLabelValues("miss").Inc()
}

// FallbackWordServed counts a fallback word.
func FallbackWordServed() {
	fallbackWords.Inc()
}

// RequestRateLimited counts a rejected request.
func RequestRateLimited() {
	rateLimited.Inc()
}

// Gatherer exposes the registry, mainly for tests.
func Gatherer() prometheus.Gatherer {
	return registry
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
