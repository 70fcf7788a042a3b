// Package metrics exposes Prometheus instruments for the service and the worker.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"paysched/internal/core"
)

const namespace = "paysched"

type Metrics struct {
	operations   *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	uploads      *prometheus.CounterVec
	uploadBytes  prometheus.Histogram
	events       *prometheus.CounterVec
	consumed     *prometheus.CounterVec
	exports      *prometheus.CounterVec
}

// New registers the instruments on reg. A nil registerer yields a no-op Metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_operations_total",
			Help:      "Payment store operations by outcome.",
		}, []string{"operation", "outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_uploads_total",
			Help:      "Document uploads by outcome.",
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_upload_bytes",
			Help:      "Size of stored documents.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 6),
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_events_total",
			Help:      "Payment events published, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_events_consumed_total",
			Help:      "Payment events handled by the export worker, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_exports_total",
			Help:      "Ledger sheet writes by action and outcome.",
		}, []string{"action", "outcome"}),
	}
	reg.MustRegister(m.operations, m.httpDuration, m.uploads, m.uploadBytes, m.events, m.consumed, m.exports)
	return m
}

func (m *Metrics) RecordOperation(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(op), outcome(err)).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(code)).Observe(d.Seconds())
}

// RecordUpload satisfies documents.Recorder.
func (m *Metrics) RecordUpload(result string, bytes int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(normalizeLabel(result)).Inc()
	if result == "ok" {
		m.uploadBytes.Observe(float64(bytes))
	}
}

func (m *Metrics) RecordEvent(kind string, err error) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(kind), outcome(err)).Inc()
}

func (m *Metrics) RecordConsumed(kind string, err error) {
	if m == nil {
		return
	}
	m.consumed.WithLabelValues(normalizeLabel(kind), outcome(err)).Inc()
}

func (m *Metrics) RecordExport(action string, err error) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(normalizeLabel(action), outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrValidation):
		return "invalid"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
