package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Producer writes keyed records to a broker topic.
type Producer interface {
	Produce(ctx context.Context, key, value []byte, headers map[string]string) error
}

// KafkaPublisher encodes events as JSON keyed by subject so events for one
// submission land on one partition in order.
type KafkaPublisher struct {
	producer Producer
	metrics  *Metrics
}

// Metrics counts broker deliveries.
type Metrics struct {
	Published *prometheus.CounterVec
	Failures  *prometheus.CounterVec
}

// NewMetrics registers publisher metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_events_published_total",
			Help: "Events delivered to the broker by type",
		}, []string{"type"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_events_publish_failures_total",
			Help: "Events the broker rejected by type",
		}, []string{"type"}),
	}
}

// NewKafka wraps producer. metrics may be nil.
func NewKafka(producer Producer, metrics *Metrics) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, metrics: metrics}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	headers := map[string]string{"event_type": string(event.Type)}
	if event.RequestID != "" {
		headers["request_id"] = event.RequestID
	}
	if err := p.producer.Produce(ctx, []byte(event.SubjectID), value, headers); err != nil {
		if p.metrics != nil {
			p.metrics.Failures.WithLabelValues(string(event.Type)).Inc()
		}
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	if p.metrics != nil {
		p.metrics.Published.WithLabelValues(string(event.Type)).Inc()
	}
	return nil
}
