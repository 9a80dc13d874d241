// Package stats wires the agent's counters and gauges into
// prometheus/client_golang and drives a periodic glog summary, the same
// Runner-shaped role the teacher's stats.Prunner plays for cluster
// counters (stats/proxy_stats.go) — reimplemented against a real metrics
// library instead of the teacher's hand-rolled statsTracker/StatsD pair,
// since client_golang is part of the retrieved dependency pack and covers
// the same ground more completely.
package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge the agent exposes on /metrics
// (SPEC_FULL.md's Domain Stack section).
type Metrics struct {
	Registry *prometheus.Registry

	ObservationsIngested *prometheus.CounterVec
	DuplicatesSuppressed prometheus.Counter
	LinesDiscarded       *prometheus.CounterVec
	AssetsMutated        *prometheus.CounterVec
	HTTPRequests         *prometheus.CounterVec
	BufferOccupancy      prometheus.Gauge
	AssetBufferOccupancy prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ObservationsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtcagent", Name: "observations_ingested_total",
			Help: "Observations applied to the data store, by category.",
		}, []string{"category"}),
		DuplicatesSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mtcagent", Name: "duplicates_suppressed_total",
			Help: "EVENT/SAMPLE observations dropped because they repeat the current value.",
		}),
		LinesDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtcagent", Name: "shdr_lines_discarded_total",
			Help: "SHDR lines discarded before ingest, by reason.",
		}, []string{"reason"}),
		AssetsMutated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtcagent", Name: "assets_mutated_total",
			Help: "Asset store mutations, by operation.",
		}, []string{"op"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mtcagent", Name: "http_requests_total",
			Help: "HTTP requests served, by route and status class.",
		}, []string{"route", "status"}),
		BufferOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mtcagent", Name: "sample_buffer_occupancy",
			Help: "Number of observations currently retained in the sample buffer.",
		}),
		AssetBufferOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mtcagent", Name: "asset_count",
			Help: "Number of distinct asset ids currently tracked, including tombstoned ones.",
		}),
	}
	reg.MustRegister(
		m.ObservationsIngested, m.DuplicatesSuppressed, m.LinesDiscarded,
		m.AssetsMutated, m.HTTPRequests, m.BufferOccupancy, m.AssetBufferOccupancy,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format at the
// agent's /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
