package commands

import (
	"context"

	"quickdrop/internal/core/domain/model/courier"
)

type HeartbeatCommandHandler struct {
	uowFactory CourierUoWFactory
}

// NewHeartbeatCommandHandler creates a handler for courier location pings.
func NewHeartbeatCommandHandler(uowFactory CourierUoWFactory) HeartbeatCommandHandler {
	return HeartbeatCommandHandler{uowFactory: uowFactory}
}

// Handle does not lock the courier row. Only presence columns are written, so a
// heartbeat racing with a status change keeps both.
func (h HeartbeatCommandHandler) Handle(ctx context.Context, cmd HeartbeatCommand) (*courier.Courier, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.CourierRepository()
	c, err := repo.Get(ctx, cmd.CourierID())
	if err != nil {
		return nil, err
	}
	if err = c.Heartbeat(cmd.Location(), cmd.Address(), now()); err != nil {
		return nil, err
	}
	if err = repo.UpdatePresence(ctx, c); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
