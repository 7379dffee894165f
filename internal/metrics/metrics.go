// Package metrics declares the Prometheus collectors exported by the console.
// Collectors register with the default registry and are served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EngineInits counts render engine constructions by result (ok, failed).
	EngineInits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schemascope_engine_inits_total",
		Help: "Render engine constructions by result",
	}, []string{"result"})

	LiveEngines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "schemascope_engines_live",
		Help: "Render engines currently attached to a surface",
	})

	// DroppedElements counts elements removed during sanitization by reason.
	DroppedElements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schemascope_dropped_elements_total",
		Help: "Graph elements dropped before rendering by reason",
	}, []string{"reason"})

	StaleEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schemascope_stale_engine_events_total",
		Help: "Engine callbacks dropped because their engine was torn down",
	})

	SupersededLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schemascope_superseded_loads_total",
		Help: "Graph loads discarded because a newer load was requested",
	})

	FilterApplications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schemascope_filter_applications_total",
		Help: "Search filter applications by outcome (neutral, highlighted)",
	}, []string{"outcome"})

	// UpstreamDuration tracks calls to the onboarding and discovery services.
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schemascope_upstream_request_duration_seconds",
		Help:    "Upstream REST call duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"service", "operation", "result"})

	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "schemascope_sessions_active",
		Help: "Open viewer sessions",
	})
)

// RecordDrops adds the per-reason drop counts of one sanitization pass.
func RecordDrops(duplicateNodes, duplicateEdges, danglingEdges int) {
	if duplicateNodes > 0 {
		DroppedElements.WithLabelValues("duplicate_node").Add(float64(duplicateNodes))
	}
	if duplicateEdges > 0 {
		DroppedElements.WithLabelValues("duplicate_edge").Add(float64(duplicateEdges))
	}
	if danglingEdges > 0 {
		DroppedElements.WithLabelValues("dangling_edge").Add(float64(danglingEdges))
	}
}
