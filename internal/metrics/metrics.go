// Package metrics exposes engine counters over a prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's prometheus instruments
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal   *prometheus.CounterVec
	AnalysisErrors  *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	CacheBypasses   prometheus.Counter
	ValueBetsTotal  *prometheus.CounterVec
	SweepDuration   prometheus.Histogram
	SweepMatchTotal *prometheus.CounterVec
}

// New creates the metrics set on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_engine_analyses_total",
			Help: "Completed match analyses by sport",
		}, []string{"sport"}),
		AnalysisErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_engine_analysis_errors_total",
			Help: "Failed match analyses by sport and reason",
		}, []string{"sport", "reason"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edge_engine_cache_hits_total",
			Help: "Analysis cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edge_engine_cache_misses_total",
			Help: "Analysis cache misses",
		}),
		CacheBypasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "edge_engine_cache_bypasses_total",
			Help: "Cache entries skipped inside the kickoff window",
		}),
		ValueBetsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_engine_value_bets_total",
			Help: "Qualified value bets by sport",
		}, []string{"sport"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "edge_engine_sweep_duration_seconds",
			Help:    "Wall-clock duration of sweep runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		SweepMatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_engine_sweep_matches_total",
			Help: "Sweep matches by result",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.AnalysesTotal, m.AnalysisErrors,
		m.CacheHits, m.CacheMisses, m.CacheBypasses,
		m.ValueBetsTotal, m.SweepDuration, m.SweepMatchTotal,
	)

	return m
}

// Handler returns the /metrics HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
