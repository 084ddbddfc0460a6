package batch

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"invoicer/internal/invoice"
)

const (
	ReasonMissingField = "missing_field"
	ReasonStructural   = "structural"
	ReasonDate         = "date"
	ReasonPaymentTerm  = "payment_term"
	ReasonArithmetic   = "arithmetic"
	ReasonDuplicate    = "duplicate"
	ReasonIO           = "io"
	ReasonUnknown      = "unknown"
)

// ClassifyError maps a record failure to a low-cardinality reason label.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, invoice.ErrMissingField):
		return ReasonMissingField
	case errors.Is(err, invoice.ErrStructuralValidation):
		return ReasonStructural
	case errors.Is(err, invoice.ErrDateParse):
		return ReasonDate
	case errors.Is(err, invoice.ErrPaymentTermParse):
		return ReasonPaymentTerm
	case errors.Is(err, invoice.ErrArithmeticPrecondition):
		return ReasonArithmetic
	case errors.Is(err, ErrDuplicateInvoice):
		return ReasonDuplicate
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return ReasonIO
	default:
		return ReasonUnknown
	}
}

// Metrics captures batch throughput and failure reasons.
type Metrics struct {
	registry *prometheus.Registry

	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
	runs     prometheus.Counter
}

// NewMetrics creates the batch metrics on a private registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicer",
			Name:      "records_total",
			Help:      "Records processed, by outcome status.",
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicer",
			Name:      "record_failures_total",
			Help:      "Failed records, by failure reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invoicer",
			Name:      "record_duration_seconds",
			Help:      "Time spent on one record from read to move.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "invoicer",
			Name:      "runs_total",
			Help:      "Completed batch runs.",
		}),
	}

	registry.MustRegister(m.records, m.failures, m.duration, m.runs)
	return m
}

// Observe records the outcome of one record.
func (m *Metrics) Observe(r Result) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(string(r.Status)).Inc()
	if r.Status == StatusError {
		m.failures.WithLabelValues(ClassifyError(r.Err)).Inc()
	}
	if r.Status != StatusSkipped {
		m.duration.Observe(r.Duration.Seconds())
	}
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun() {
	if m == nil {
		return
	}
	m.runs.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
