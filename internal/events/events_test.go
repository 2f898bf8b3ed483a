package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBusDeliversInOrderAndSurvivesPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewBus(zap.New(core))

	var seen []string
	bus.Subscribe(func(_ context.Context, e Event) { seen = append(seen, "first:"+e.Type) })
	bus.Subscribe(func(context.Context, Event) { panic("broken subscriber") })
	bus.Subscribe(func(_ context.Context, e Event) { seen = append(seen, "third:"+e.Type) })

	bus.Publish(context.Background(), New(AlertCreated, uuid.New(), nil, nil))

	assert.Equal(t, []string{"first:alert.created", "third:alert.created"}, seen)
	assert.Equal(t, 1, logs.FilterMessage("event handler panicked").Len())
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, log: zap.NewNop(), timeout: time.Second}
	districtID := uuid.New()
	e := New(ReportCreated, uuid.New(), &districtID, map[string]string{"severity": "High"})

	p.Handle(context.Background(), e)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte(ReportCreated), w.msgs[0].Key)

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, e.EntityID, decoded.EntityID)
	assert.Equal(t, districtID, *decoded.DistrictID)
}

func TestKafkaPublisherLogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("no brokers")}, log: zap.New(core), timeout: time.Second}

	p.Handle(context.Background(), New(AlertCreated, uuid.New(), nil, nil))

	assert.Equal(t, 1, logs.FilterMessage("failed to publish event to kafka").Len())
}
