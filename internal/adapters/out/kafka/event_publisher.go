// Package kafka publishes committed outbox messages to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"time"

	"quickdrop/internal/core/ports"

	skafka "github.com/segmentio/kafka-go"
)

const (
	HeaderEventID    = "event-id"
	HeaderEventType  = "event-type"
	HeaderOccurredAt = "occurred-at"
)

// Writer is the part of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

var _ ports.EventPublisher = (*EventPublisher)(nil)

// EventPublisher writes one Kafka message per outbox message, keyed by the aggregate
// id so that all events of a shipment land on one partition in order.
type EventPublisher struct {
	writer Writer
}

func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	return NewEventPublisherWithWriter(&skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.Hash{},
		RequiredAcks: skafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	})
}

func NewEventPublisherWithWriter(w Writer) *EventPublisher {
	return &EventPublisher{writer: w}
}

// Publish writes the whole batch in one call. kafka-go reports a partial failure as an
// error for the batch, and the relay retries every message of it.
func (p *EventPublisher) Publish(ctx context.Context, messages []ports.OutboxMessage) error {
	if len(messages) == 0 {
		return nil
	}

	msgs := make([]skafka.Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, skafka.Message{
			Key:   []byte(m.AggregateID.String()),
			Value: m.Payload,
			Time:  m.OccurredAt,
			Headers: []skafka.Header{
				{Key: HeaderEventID, Value: []byte(m.ID.String())},
				{Key: HeaderEventType, Value: []byte(m.EventType)},
				{Key: HeaderOccurredAt, Value: []byte(m.OccurredAt.UTC().Format(time.RFC3339Nano))},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d events to kafka: %w", len(msgs), err)
	}
	return nil
}

func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
