package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/helixir/author-reconciliation-service/internal/config"
	"github.com/helixir/author-reconciliation-service/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "events.author_reconciliation", zerolog.Nop())

	ev, err := domain.NewEvent(domain.EventTypeAuthorReconciled, "run-1", domain.AuthorReconciledPayload{
		RunID:    "run-1",
		Provider: "dblp",
		AuthorID: "urn:author:1",
	})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "run-1", string(msg.Key))
	assert.Equal(t, kafka.Header{Key: HeaderEventType, Value: []byte(domain.EventTypeAuthorReconciled)}, msg.Headers[0])
	assert.Equal(t, ev.EventID, string(msg.Headers[1].Value))

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.EventID, decoded.EventID)
	assert.JSONEq(t, string(ev.Payload), string(decoded.Payload))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_Errors(t *testing.T) {
	cause := errors.New("leader not available")
	p := newKafkaPublisher(&fakeWriter{err: cause}, "t", zerolog.Nop())

	ev, err := domain.NewEvent(domain.EventTypeRunCompleted, "run-2", domain.RunCompletedPayload{RunID: "run-2"})
	require.NoError(t, err)

	err = p.Publish(context.Background(), ev)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "publish run.completed")

	assert.Error(t, p.Publish(context.Background(), nil))
}

func TestNewPublisher(t *testing.T) {
	_, ok := NewPublisher(config.KafkaConfig{}, zerolog.Nop()).(NoopPublisher)
	assert.True(t, ok)

	p := NewPublisher(config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "t"}, zerolog.Nop())
	_, ok = p.(*KafkaPublisher)
	assert.True(t, ok)
	require.NoError(t, p.Close())

	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), nil))
}
