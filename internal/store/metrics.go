package store

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts commit outcomes. A nil *Metrics records nothing.
type Metrics struct {
	commits *prometheus.CounterVec
	changes *prometheus.CounterVec
}

// NewMetrics creates the store counters and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them process-wide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "persistkit",
			Name:      "commits_total",
			Help:      "Context commits by result (ok|error).",
		}, []string{"result"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "persistkit",
			Name:      "changes_total",
			Help:      "Committed changes by operation (insert|delete).",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.commits, m.changes)
	}
	return m
}

func (m *Metrics) observeCommit(ok bool, changes []change) {
	if m == nil {
		return
	}
	if !ok {
		m.commits.WithLabelValues("error").Inc()
		return
	}
	m.commits.WithLabelValues("ok").Inc()
	for _, ch := range changes {
		m.changes.WithLabelValues(ch.op.String()).Inc()
	}
}
