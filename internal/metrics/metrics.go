// Package metrics exposes Prometheus counters for cover lookups.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coceerrors "github.com/lepinkainen/coce/internal/errors"
)

// Cache lookup results.
const (
	CacheHit      = "hit"
	CacheNegative = "negative"
	CacheMiss     = "miss"
	CacheError    = "error"
	CacheTimeout  = "timeout"
)

// Fetch outcomes.
const (
	FetchComplete    = "complete"
	FetchPartial     = "partial"
	FetchConfigError = "config_error"
)

var (
	registerOnce sync.Once

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coce",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by provider and result",
	}, []string{"provider", "result"})
	providerCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coce",
		Name:      "provider_calls_total",
		Help:      "Upstream provider calls by provider and outcome",
	}, []string{"provider", "outcome"})
	providerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coce",
		Name:      "provider_call_duration_seconds",
		Help:      "Duration of upstream provider calls",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10),
	}, []string{"provider"})
	fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coce",
		Name:      "fetches_total",
		Help:      "Fetch calls by outcome",
	}, []string{"outcome"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(cacheLookups, providerCalls, providerDuration, fetches)
	})
}

func IncCacheLookup(provider, result string) { cacheLookups.WithLabelValues(provider, result).Inc() }
func IncFetch(outcome string)                { fetches.WithLabelValues(outcome).Inc() }

// ObserveProviderCall records one adapter call.
func ObserveProviderCall(provider string, err error, d time.Duration) {
	outcome := "success"
	switch {
	case coceerrors.IsRateLimitError(err):
		outcome = "rate_limited"
	case err != nil:
		outcome = "error"
	}
	providerCalls.WithLabelValues(provider, outcome).Inc()
	providerDuration.WithLabelValues(provider).Observe(d.Seconds())
}
