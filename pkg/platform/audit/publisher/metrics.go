package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks audit log writes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	EntriesEmitted  prometheus.Counter
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics registers audit metrics with reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		EntriesEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskflow_audit_entries_emitted_total",
			Help: "Total number of audit entries persisted",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "riskflow_audit_persist_failures_total",
			Help: "Total number of audit entries that failed to persist",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "riskflow_audit_persist_duration_seconds",
			Help:    "Time spent appending an audit entry",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncEntriesEmitted() {
	if m == nil {
		return
	}
	m.EntriesEmitted.Inc()
}

func (m *Metrics) IncPersistFailures() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) ObservePersistDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(seconds)
}
