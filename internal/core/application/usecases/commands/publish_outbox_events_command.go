package commands

import (
	"context"
	"errors"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/ports"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

var ErrPublishOutboxEventsCommandIsNotConstructed = errors.New(
	"PublishOutboxEventsCommand must be created via NewPublishOutboxEventsCommand constructor",
)

const maxOutboxBatch = 1000

// PublishOutboxEventsCommand relays one batch of committed domain events.
type PublishOutboxEventsCommand struct {
	batchSize int

	guard guard.ConstructorGuard
}

// NewPublishOutboxEventsCommand rejects a non-positive batch size.
func NewPublishOutboxEventsCommand(batchSize int) (PublishOutboxEventsCommand, error) {
	if batchSize < 1 || batchSize > maxOutboxBatch {
		return PublishOutboxEventsCommand{}, errs.NewValueIsOutOfRangeError("batch size", batchSize, 1, maxOutboxBatch)
	}
	return PublishOutboxEventsCommand{batchSize: batchSize, guard: guard.NewConstructorGuard()}, nil
}

func (c PublishOutboxEventsCommand) Validate() error {
	return c.guard.Validate(ErrPublishOutboxEventsCommandIsNotConstructed)
}

func (c PublishOutboxEventsCommand) BatchSize() int { return c.batchSize }

type PublishOutboxEventsCommandHandler struct {
	uowFactory OutboxUoWFactory
	publisher  ports.EventPublisher
}

// NewPublishOutboxEventsCommandHandler creates the outbox relay handler.
func NewPublishOutboxEventsCommandHandler(
	uowFactory OutboxUoWFactory,
	publisher ports.EventPublisher,
) PublishOutboxEventsCommandHandler {
	return PublishOutboxEventsCommandHandler{uowFactory: uowFactory, publisher: publisher}
}

// Handle returns how many messages were published. The batch stays locked while it
// is published, so a failed publish leaves it for the next run and concurrent
// relays never send the same message. Delivery is at least once.
func (h PublishOutboxEventsCommandHandler) Handle(ctx context.Context, cmd PublishOutboxEventsCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OutboxRepository()
	messages, err := repo.FetchUnpublished(ctx, cmd.BatchSize())
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, nil
	}

	if err = h.publisher.Publish(ctx, messages); err != nil {
		return 0, err
	}

	ids := make([]kernel.UUID, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	if err = repo.MarkPublished(ctx, ids, now()); err != nil {
		return 0, err
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}
	return len(messages), nil
}
