package commands

import (
	"context"
	"errors"
	"time"

	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

var ErrSweepStalePresenceCommandIsNotConstructed = errors.New(
	"SweepStalePresenceCommand must be created via NewSweepStalePresenceCommand constructor",
)

// SweepStalePresenceCommand takes offline every courier that has not sent a
// heartbeat within ttl.
type SweepStalePresenceCommand struct {
	ttl time.Duration

	guard guard.ConstructorGuard
}

// NewSweepStalePresenceCommand rejects a non-positive ttl.
func NewSweepStalePresenceCommand(ttl time.Duration) (SweepStalePresenceCommand, error) {
	if ttl <= 0 {
		return SweepStalePresenceCommand{}, errs.NewValueIsInvalidError("heartbeat ttl")
	}
	return SweepStalePresenceCommand{ttl: ttl, guard: guard.NewConstructorGuard()}, nil
}

func (c SweepStalePresenceCommand) Validate() error {
	return c.guard.Validate(ErrSweepStalePresenceCommandIsNotConstructed)
}

func (c SweepStalePresenceCommand) TTL() time.Duration { return c.ttl }

type SweepStalePresenceCommandHandler struct {
	uowFactory CourierUoWFactory
}

// NewSweepStalePresenceCommandHandler creates a handler that takes silent couriers offline.
func NewSweepStalePresenceCommandHandler(uowFactory CourierUoWFactory) SweepStalePresenceCommandHandler {
	return SweepStalePresenceCommandHandler{uowFactory: uowFactory}
}

// Handle returns the number of couriers taken offline.
func (h SweepStalePresenceCommandHandler) Handle(ctx context.Context, cmd SweepStalePresenceCommand) (int64, error) {
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

	swept, err := uow.CourierRepository().MarkStaleOffline(ctx, now().Add(-cmd.TTL()))
	if err != nil {
		return 0, err
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}
	return swept, nil
}
