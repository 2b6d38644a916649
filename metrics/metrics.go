// Package metrics provides Prometheus instrumentation for pipeline runs.
//
// A Registry owns its own prometheus.Registry, not the global default: each CLI
// invocation and each test starts from zero. All methods are safe on a
// nil *Registry, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the pipeline collectors.
type Registry struct {
	registry *prometheus.Registry

	// Documents counts processed documents by kind and outcome status.
	Documents *prometheus.CounterVec

	// Rows counts activity rows applied, by row kind.
	Rows *prometheus.CounterVec

	// MergeDuration tracks how long merging one activity document takes.
	MergeDuration prometheus.Histogram

	// Positions tracks the number of positions per account after a run.
	Positions *prometheus.GaugeVec
}

// New creates a registry with every collector registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		Documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "holdings_documents_total",
			Help: "Documents processed, by kind and outcome",
		}, []string{"kind", "status"}),
		Rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "holdings_rows_total",
			Help: "Activity rows applied to a ledger, by row kind",
		}, []string{"kind"}),
		MergeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "holdings_merge_duration_seconds",
			Help:    "Time spent merging one activity document",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		Positions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "holdings_positions",
			Help: "Positions held per account after the last run",
		}, []string{"account"}),
	}
}

// ObserveDocument counts one document outcome.
func (r *Registry) ObserveDocument(kind, status string) {
	if r == nil {
		return
	}
	r.Documents.WithLabelValues(kind, status).Inc()
}

// ObserveRow counts one applied activity row.
func (r *Registry) ObserveRow(kind string) {
	if r == nil {
		return
	}
	r.Rows.WithLabelValues(kind).Inc()
}

// ObserveMerge records the duration of one activity merge.
func (r *Registry) ObserveMerge(d time.Duration) {
	if r == nil {
		return
	}
	r.MergeDuration.Observe(d.Seconds())
}

// SetPositions records the position count of an account.
func (r *Registry) SetPositions(account string, n int) {
	if r == nil {
		return
	}
	r.Positions.WithLabelValues(account).Set(float64(n))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes every metric to path in the node exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
