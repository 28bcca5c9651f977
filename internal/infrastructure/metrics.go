package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	SnapshotLoads    *prometheus.CounterVec
	SnapshotDuration prometheus.Histogram
	LedgerRecords    *prometheus.GaugeVec
}

// NewMetrics creates a dedicated registry with the application collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sacdash",
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
		SnapshotLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sacdash",
			Name:      "snapshot_loads_total",
			Help:      "Snapshot load attempts by outcome.",
		}, []string{"outcome"}),
		SnapshotDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sacdash",
			Name:      "snapshot_load_duration_seconds",
			Help:      "Time spent fetching and reconciling the five sources.",
			Buckets:   prometheus.DefBuckets,
		}),
		LedgerRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sacdash",
			Name:      "ledger_records",
			Help:      "Reconciled ledger records in the current snapshot by type.",
		}, []string{"type"}),
	}
}
