package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// compliance engine.
type Metrics struct {
	ScoresComputed prometheus.Counter
	ScoreErrors    prometheus.Counter

	// Fleet operation metrics, labeled op={ranking,portfolio,compare}.
	FleetOps        *prometheus.CounterVec
	FleetOpDuration *prometheus.HistogramVec

	// Snapshot rebuild metrics.
	RebuildTriggers   *prometheus.CounterVec // labels: source={cron,kafka,manual}
	RebuildDuration   prometheus.Histogram
	SnapshotsUpserted prometheus.Counter

	// Result cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,error}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ScoresComputed,
		m.ScoreErrors,
		m.FleetOps,
		m.FleetOpDuration,
		m.RebuildTriggers,
		m.RebuildDuration,
		m.SnapshotsUpserted,
		m.CacheLookups,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ScoresComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "scores_computed_total",
			Help:      "Total per-business compliance score computations.",
		}),
		ScoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "score_errors_total",
			Help:      "Total score computations aborted by storage failures.",
		}),
		FleetOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "fleet_operations_total",
			Help:      "Fleet-wide scoring operations by kind.",
		}, []string{"op"}),
		FleetOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "compliance",
			Name:      "fleet_operation_duration_seconds",
			Help:      "Duration of fleet-wide scoring operations.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		RebuildTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "snapshot_rebuild_triggers_total",
			Help:      "Ranking snapshot rebuilds by trigger source.",
		}, []string{"source"}),
		RebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "compliance",
			Name:      "snapshot_rebuild_duration_seconds",
			Help:      "Duration of a full ranking snapshot rebuild.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SnapshotsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "snapshots_upserted_total",
			Help:      "Total ranking snapshot rows written.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "compliance",
			Name:      "result_cache_lookups_total",
			Help:      "Compliance result cache lookups by result.",
		}, []string{"result"}),
	}
}
