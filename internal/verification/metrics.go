package verification

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks verification outcomes and provider latency.
type Metrics struct {
	Verifications *prometheus.CounterVec
	Scores        prometheus.Histogram
	Duration      prometheus.Histogram
}

// NewMetrics registers the verification metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_verifications_total",
			Help: "Verification calls by outcome (verified, not_verified, error)",
		}, []string{"outcome"}),
		Scores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_verification_score",
			Help:    "Face comparison scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_verification_duration_seconds",
			Help:    "End to end verification duration including provider calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) observe(outcome string, score float64, start time.Time) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
	m.Duration.Observe(time.Since(start).Seconds())
	if outcome != outcomeError {
		m.Scores.Observe(score)
	}
}
