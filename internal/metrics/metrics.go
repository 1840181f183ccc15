package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "msa_engine"

// Metrics owns a private registry with the HTTP and engine collectors
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	engineRuns     *prometheus.CounterVec
	engineDuration *prometheus.HistogramVec
	engineRecords  *prometheus.CounterVec
	flaggedMSAs    prometheus.Counter

	datasetUploads *prometheus.CounterVec
	datasetRows    *prometheus.GaugeVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		engineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Engine operations by name.",
		}, []string{"operation"}),
		engineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"operation"}),
		engineRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "records_total",
			Help:      "Records consumed by engine operations.",
		}, []string{"operation"}),
		flaggedMSAs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acquisition",
			Name:      "flagged_msas_total",
			Help:      "MSAs flagged for regulatory concentration risk.",
		}),
		datasetUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "uploads_total",
			Help:      "Dataset uploads by kind and outcome.",
		}, []string{"kind", "outcome"}),
		datasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "rows",
			Help:      "Rows stored per dataset kind after the last upload.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.engineRuns,
		m.engineDuration,
		m.engineRecords,
		m.flaggedMSAs,
		m.datasetUploads,
		m.datasetRows,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(route, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveEngine records one engine operation over n input records
func (m *Metrics) ObserveEngine(operation string, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.engineRuns.WithLabelValues(operation).Inc()
	m.engineRecords.WithLabelValues(operation).Add(float64(records))
	m.engineDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// AddFlaggedMSAs counts MSAs flagged by an acquisition simulation
func (m *Metrics) AddFlaggedMSAs(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.flaggedMSAs.Add(float64(n))
}

// ObserveUpload records a dataset upload outcome and the stored row count
func (m *Metrics) ObserveUpload(kind string, rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.datasetUploads.WithLabelValues(kind, "error").Inc()
		return
	}
	m.datasetUploads.WithLabelValues(kind, "ok").Inc()
	m.datasetRows.WithLabelValues(kind).Set(float64(rows))
}
