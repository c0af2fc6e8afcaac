package commands

import (
	"context"
	"fmt"

	"quickdrop/internal/core/domain/model/courier"
)

type UpdateCourierStatusCommandHandler struct {
	uowFactory CourierUoWFactory
}

// NewUpdateCourierStatusCommandHandler creates a handler for courier status changes.
func NewUpdateCourierStatusCommandHandler(uowFactory CourierUoWFactory) UpdateCourierStatusCommandHandler {
	return UpdateCourierStatusCommandHandler{uowFactory: uowFactory}
}

// Handle applies a staff status change, or the narrower own shift change when the
// command comes from the courier itself.
func (h UpdateCourierStatusCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateCourierStatusCommand,
) (*courier.Courier, error) {
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
	c, err := repo.GetForUpdate(ctx, cmd.CourierID())
	if err != nil {
		return nil, err
	}
	if cmd.IsOwnShift() {
		err = c.ChangeOwnShift(cmd.Status())
	} else {
		err = c.ChangeStatus(cmd.Status())
	}
	if err != nil {
		return nil, err
	}
	if err = repo.UpdateStatus(ctx, c); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

type CourierPresenceCommandHandler struct {
	uowFactory CourierUoWFactory
}

// NewCourierPresenceCommandHandler creates a handler for going offline and verification.
func NewCourierPresenceCommandHandler(uowFactory CourierUoWFactory) CourierPresenceCommandHandler {
	return CourierPresenceCommandHandler{uowFactory: uowFactory}
}

// Handle locks the courier and applies the presence change.
func (h CourierPresenceCommandHandler) Handle(ctx context.Context, cmd CourierPresenceCommand) (*courier.Courier, error) {
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
	c, err := repo.GetForUpdate(ctx, cmd.CourierID())
	if err != nil {
		return nil, err
	}

	switch cmd.action {
	case actionGoOffline:
		c.GoOffline()
		err = repo.UpdatePresence(ctx, c)
	case actionVerify:
		c.Verify()
		err = repo.UpdateVerification(ctx, c)
	default:
		err = fmt.Errorf("unsupported courier presence action %d", cmd.action)
	}
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
