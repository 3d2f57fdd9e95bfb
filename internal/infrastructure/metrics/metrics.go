package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeHit  = "hit"
	OutcomeMiss = "miss"

	FallbackPermission = "permission"
	FallbackError      = "error"
	FallbackPanic      = "panic"
	FallbackEmpty      = "empty"

	SourceReal      = "real"
	SourceGenerated = "generated"
)

// Metrics holds the usage pipeline counters
type Metrics struct {
	cacheLookups      *prometheus.CounterVec
	cacheInvalidation prometheus.Counter
	sourceFallbacks   *prometheus.CounterVec
	recomputations    *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellsync_usage_cache_lookups_total",
			Help: "Usage cache lookups by outcome.",
		}, []string{"outcome"}),
		cacheInvalidation: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wellsync_usage_cache_invalidations_total",
			Help: "Explicit usage cache invalidations.",
		}),
		sourceFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellsync_usage_source_fallbacks_total",
			Help: "Falls back to generated data by reason.",
		}, []string{"reason"}),
		recomputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wellsync_usage_recomputations_total",
			Help: "Time series recomputations by data source.",
		}, []string{"source"}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellsync_usage_recompute_duration_seconds",
			Help:    "Latency of usage recomputation including the source call.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.cacheLookups,
			m.cacheInvalidation,
			m.sourceFallbacks,
			m.recomputations,
			m.recomputeDuration,
		)
	}
	return m
}

// Nop returns unregistered collectors, for tests and callers that don't export metrics
func Nop() *Metrics {
	return New(nil)
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(OutcomeHit).Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(OutcomeMiss).Inc()
}

func (m *Metrics) CacheInvalidated() {
	if m == nil {
		return
	}
	m.cacheInvalidation.Inc()
}

func (m *Metrics) SourceFallback(reason string) {
	if m == nil {
		return
	}
	m.sourceFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) Recomputed(source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.recomputations.WithLabelValues(source).Inc()
	m.recomputeDuration.Observe(elapsed.Seconds())
}
