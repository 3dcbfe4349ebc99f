// Package telemetry holds the Prometheus collectors of the service. All
// methods are safe on a nil *Metrics, which turns them into no-ops.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "adinsights"

type Metrics struct {
	Queries         *prometheus.CounterVec
	Exports         *prometheus.CounterVec
	ExportDuration  *prometheus.HistogramVec
	Refreshes       *prometheus.CounterVec
	SnapshotRecords prometheus.Gauge
	LastRefresh     prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "queries_total",
			Help: "Table queries served, by endpoint.",
		}, []string{"endpoint"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "exports_total",
			Help: "Export artifacts produced, by format and result.",
		}, []string{"format", "result"}),
		ExportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "export_duration_seconds",
			Help:    "Time spent rendering export artifacts.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"format"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "snapshot_refreshes_total",
			Help: "Snapshot reloads, by source and result.",
		}, []string{"source", "result"}),
		SnapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "snapshot_records",
			Help: "Records in the current snapshot.",
		}),
		LastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "snapshot_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful snapshot reload.",
		}),
	}
	reg.MustRegister(m.Queries, m.Exports, m.ExportDuration, m.Refreshes, m.SnapshotRecords, m.LastRefresh)
	return m
}

func (m *Metrics) ObserveQuery(endpoint string) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) ObserveExport(format string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.ExportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	m.Exports.WithLabelValues(format, result(err)).Inc()
}

func (m *Metrics) ObserveRefresh(source string, records int, at time.Time, err error) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(source, result(err)).Inc()
	if err != nil {
		return
	}
	m.SnapshotRecords.Set(float64(records))
	m.LastRefresh.Set(float64(at.Unix()))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
