package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the applicant workflow.
type Metrics struct {
	// Operation outcomes by operation and result code
	Operations *prometheus.CounterVec

	// Whole-table sync latency by outcome
	SyncLatency *prometheus.HistogramVec

	QueueDepth prometheus.Gauge
	Records    prometheus.Gauge
}

// New registers the applicant metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ktp_applicant_operations_total",
			Help: "Applicant operations by operation and outcome",
		}, []string{"operation", "outcome"}), // outcome: "ok" or a domain error code

		SyncLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ktp_applicant_sync_duration_seconds",
			Help:    "Duration of whole-table persistence syncs",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"outcome"}),

		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ktp_verification_queue_depth",
			Help: "Applications waiting for verification",
		}),

		Records: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ktp_applicant_records",
			Help: "Applicant records held in memory",
		}),
	}
}

// IncrementOperation records the outcome of an operation.
func (m *Metrics) IncrementOperation(operation, outcome string) {
	if m != nil {
		m.Operations.WithLabelValues(operation, outcome).Inc()
	}
}

// ObserveSync records a sync attempt.
func (m *Metrics) ObserveSync(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.SyncLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetSizes publishes the current record and queue sizes.
func (m *Metrics) SetSizes(records, queued int) {
	if m != nil {
		m.Records.Set(float64(records))
		m.QueueDepth.Set(float64(queued))
	}
}
