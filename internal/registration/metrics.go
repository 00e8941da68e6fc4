package registration

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess        = "success"
	outcomePartial        = "partial"
	outcomeRejected       = "rejected"
	outcomeIdentityFailed = "identity_failed"
	outcomePanic          = "panic"
)

// Metrics counts registration outcomes. A nil *Metrics records nothing.
type Metrics struct {
	outcomes     *prometheus.CounterVec
	provisioning *prometheus.CounterVec
}

// NewMetrics registers the registration counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kerjalepas",
			Subsystem: "registration",
			Name:      "attempts_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		provisioning: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kerjalepas",
			Subsystem: "registration",
			Name:      "provisioning_failures_total",
			Help:      "Record insertions that failed after the identity was created.",
		}, []string{"table"}),
	}
}

func (m *Metrics) outcome(name string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(name).Inc()
}

func (m *Metrics) provisioningFailure(table string) {
	if m == nil {
		return
	}
	m.provisioning.WithLabelValues(table).Inc()
}
