// Package metrics provides Prometheus metrics for the sync cycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hacknewsbot"

// Cycle results.
const (
	ResultPublished = "published"
	ResultUnchanged = "unchanged"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
)

var (
	// CyclesTotal counts finished cycles by result.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of sync cycles",
		},
		[]string{"result"},
	)

	// CycleDuration measures cycle duration.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of sync cycles in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ItemsPublished counts entries appended to documents.
	ItemsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_published_total",
			Help:      "Total number of items appended to published documents",
		},
	)

	// VersionConflicts counts optimistic-concurrency write rejections.
	VersionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Total number of rejected document writes",
		},
	)

	// ItemFailures counts per-item degradations by stage.
	ItemFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_failures_total",
			Help:      "Total number of items skipped or degraded",
		},
		[]string{"stage"},
	)
)

// RecordCycle records a finished cycle.
func RecordCycle(result string, seconds float64) {
	CyclesTotal.WithLabelValues(result).Inc()
	CycleDuration.Observe(seconds)
}

// RecordPublished adds n appended items.
func RecordPublished(n int) {
	ItemsPublished.Add(float64(n))
}

// RecordConflict records a rejected write.
func RecordConflict() {
	VersionConflicts.Inc()
}

// RecordItemFailure records a resolution or translation failure.
func RecordItemFailure(stage string) {
	ItemFailures.WithLabelValues(stage).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
