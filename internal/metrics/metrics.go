package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for fiscal computations and workflow transitions.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Computation outcomes by operation (preview, issue) and outcome
	ComputationOutcome *prometheus.CounterVec

	// Computation latency by operation, repository loading included
	ComputeLatency *prometheus.HistogramVec

	// Workflow transitions by source state, target state and result
	Transitions *prometheus.CounterVec

	// Cents moved by the largest-remainder correction
	AdjustedCents prometheus.Counter
}

// New creates a Metrics instance registered with reg.
// A nil registerer creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ComputationOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tnb_fiscal_computations_total",
			Help: "Total fiscal computations by operation and outcome",
		}, []string{"operation", "outcome"}),

		ComputeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tnb_fiscal_compute_duration_seconds",
			Help:    "Duration of fiscal computations including tariff and share loading",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tnb_workflow_transitions_total",
			Help: "Total workflow transition attempts by source state, target state and result",
		}, []string{"from", "to", "result"}),

		AdjustedCents: factory.NewCounter(prometheus.CounterOpts{
			Name: "tnb_apportionment_adjusted_cents_total",
			Help: "Total cents redistributed when apportioning net amounts across co-owners",
		}),
	}
}

// IncrementOutcome records a computation outcome.
func (m *Metrics) IncrementOutcome(operation, outcome string) {
	if m != nil {
		m.ComputationOutcome.WithLabelValues(operation, outcome).Inc()
	}
}

// ObserveComputeLatency records the duration of one computation.
func (m *Metrics) ObserveComputeLatency(operation string, d time.Duration) {
	if m != nil {
		m.ComputeLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementTransition records a transition attempt.
func (m *Metrics) IncrementTransition(from, to, result string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to, result).Inc()
	}
}

// AddAdjustedCents records the cents moved by one apportionment.
// Negative adjustments count by magnitude.
func (m *Metrics) AddAdjustedCents(cents int64) {
	if m == nil {
		return
	}
	if cents < 0 {
		cents = -cents
	}
	m.AdjustedCents.Add(float64(cents))
}
