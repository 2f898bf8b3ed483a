package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards events to a Kafka topic keyed by event type.
type KafkaPublisher struct {
	writer  messageWriter
	log     *zap.Logger
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Async:    true,
	})
	return &KafkaPublisher{writer: writer, log: log, timeout: 5 * time.Second}
}

// Handle is an events.Handler.
func (p *KafkaPublisher) Handle(ctx context.Context, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		p.log.Error("failed to encode event", zap.String("event_type", e.Type), zap.Error(err))
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(e.Type),
		Value: value,
		Time:  e.OccurredAt,
	}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.log.Warn("failed to publish event to kafka", zap.String("event_type", e.Type), zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
