package ports

import (
	"context"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
)

// OutboxMessage is a committed domain event waiting to be published.
type OutboxMessage struct {
	ID          kernel.UUID
	AggregateID kernel.UUID
	EventType   string
	Payload     []byte
	OccurredAt  time.Time
}

// OutboxRepository stores domain events in the same transaction as the aggregates
// that recorded them.
type OutboxRepository interface {
	Append(ctx context.Context, events []kernel.DomainEvent) error

	// FetchUnpublished locks up to limit unpublished messages, oldest first, skipping
	// rows another relay already holds.
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxMessage, error)

	MarkPublished(ctx context.Context, ids []kernel.UUID, at time.Time) error
}

// EventPublisher delivers outbox messages to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, messages []OutboxMessage) error
}
