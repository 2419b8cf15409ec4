package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	key, value []byte
	headers    map[string]string
}

type fakeProducer struct {
	sent []recordedMessage
	err  error
}

func (f *fakeProducer) Produce(_ context.Context, key, value []byte, headers map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recordedMessage{key, value, headers})
	return nil
}

func TestMemoryPublisherRetainsNewest(t *testing.T) {
	p := NewMemory(2)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Publish(ctx, Event{Type: SubmissionCreated, SubjectID: id}))
	}
	require.NoError(t, p.Publish(ctx, Event{Type: SubmissionStatusChanged, SubjectID: "c"}))

	got := p.Events()
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].SubjectID)
	assert.Len(t, p.OfType(SubmissionStatusChanged), 1)
}

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	producer := &fakeProducer{}
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := NewKafka(producer, metrics)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := pub.Publish(context.Background(), Event{
		Type: SubmissionStatusChanged, SubjectID: "verification-1", RequestID: "req-1", OccurredAt: at,
		Attributes: map[string]string{"status": "approved"},
	})
	require.NoError(t, err)
	require.Len(t, producer.sent, 1)

	msg := producer.sent[0]
	assert.Equal(t, "verification-1", string(msg.key))
	assert.Equal(t, "submission.status_changed", msg.headers["event_type"])
	assert.Equal(t, "req-1", msg.headers["request_id"])

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.value, &decoded))
	assert.Equal(t, "approved", decoded.Attributes["status"])
	assert.True(t, at.Equal(decoded.OccurredAt))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Published.WithLabelValues(string(SubmissionStatusChanged))))
}

func TestKafkaPublisherReportsFailure(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := NewKafka(&fakeProducer{err: errors.New("broker down")}, metrics)

	err := pub.Publish(context.Background(), Event{Type: SubmissionCreated, SubjectID: "x"})
	require.ErrorContains(t, err, "broker down")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Failures.WithLabelValues(string(SubmissionCreated))))
}
