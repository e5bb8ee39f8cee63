package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for workflow runs. All methods are safe on
// a nil receiver.
type Metrics struct {
	// Evaluator latency by workflow and agent
	EvaluatorLatency *prometheus.HistogramVec

	// Decided cases by workflow, decision and status
	Outcomes *prometheus.CounterVec

	// Full run latency by workflow
	RunLatency *prometheus.HistogramVec

	// Trace and audit writes that failed, by workflow and sink
	PersistFailures *prometheus.CounterVec

	// Review requests by workflow and result
	ReviewRequests *prometheus.CounterVec
}

// New registers workflow metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		EvaluatorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskflow_evaluator_duration_seconds",
			Help:    "Duration of a single evaluator invocation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"workflow", "agent"}),

		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "riskflow_case_outcomes_total",
			Help: "Total decided cases by workflow, decision and status",
		}, []string{"workflow", "decision", "status"}),

		RunLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskflow_workflow_run_duration_seconds",
			Help:    "Duration of a full case run including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"workflow"}),

		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "riskflow_persist_failures_total",
			Help: "Trace or audit writes that failed; the decision was still returned",
		}, []string{"workflow", "sink"}), // sink: "trace", "audit"

		ReviewRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "riskflow_review_requests_total",
			Help: "Human review requests by workflow and result",
		}, []string{"workflow", "result"}), // result: "sent", "failed"
	}
}

func (m *Metrics) ObserveEvaluatorLatency(workflow, agent string, d time.Duration) {
	if m != nil {
		m.EvaluatorLatency.WithLabelValues(workflow, agent).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementOutcome(workflow, decision, status string) {
	if m != nil {
		m.Outcomes.WithLabelValues(workflow, decision, status).Inc()
	}
}

func (m *Metrics) ObserveRunLatency(workflow string, d time.Duration) {
	if m != nil {
		m.RunLatency.WithLabelValues(workflow).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementPersistFailure(workflow, sink string) {
	if m != nil {
		m.PersistFailures.WithLabelValues(workflow, sink).Inc()
	}
}

func (m *Metrics) IncrementReviewRequest(workflow string, ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.ReviewRequests.WithLabelValues(workflow, result).Inc()
}
