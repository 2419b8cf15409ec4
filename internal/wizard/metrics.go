package wizard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks wizard sessions and submit outcomes.
type Metrics struct {
	Started prometheus.Counter
	Submits *prometheus.CounterVec
}

// NewMetrics registers the wizard metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Started: f.NewCounter(prometheus.CounterOpts{
			Name: "kyc_wizard_sessions_started_total",
			Help: "Wizard sessions started",
		}),
		Submits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_wizard_submits_total",
			Help: "Wizard submit attempts by outcome (completed, failed, error)",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) started() {
	if m != nil {
		m.Started.Inc()
	}
}

func (m *Metrics) submit(outcome string) {
	if m != nil {
		m.Submits.WithLabelValues(outcome).Inc()
	}
}
