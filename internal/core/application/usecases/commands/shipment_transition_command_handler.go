package commands

import (
	"context"
	"fmt"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/services"
)

type ShipmentTransitionCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  services.ShipmentLifecycle
}

// NewShipmentTransitionCommandHandler creates a handler for the courier driven
// pickup, start and delivery steps.
func NewShipmentTransitionCommandHandler(
	uowFactory UoWFactory,
	lifecycle services.ShipmentLifecycle,
) ShipmentTransitionCommandHandler {
	return ShipmentTransitionCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

// Handle applies the command's operation to the locked shipment and mirrors the
// result onto its order.
func (h ShipmentTransitionCommandHandler) Handle(
	ctx context.Context,
	cmd ShipmentTransitionCommand,
) (*shipment.Shipment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var step func(*shipment.Shipment, *order.Order, kernel.UUID, time.Time) error
	switch cmd.Operation() {
	case shipment.OpConfirmPickup:
		step = h.lifecycle.ConfirmPickup
	case shipment.OpStartDelivery:
		step = h.lifecycle.StartDelivery
	case shipment.OpCompleteDelivery:
		step = h.lifecycle.CompleteDelivery
	default:
		return nil, fmt.Errorf("unsupported shipment operation %q", cmd.Operation())
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	s, err := uow.ShipmentRepository().GetForUpdate(ctx, cmd.ShipmentID())
	if err != nil {
		return nil, err
	}
	o, err := uow.OrderRepository().GetForUpdate(ctx, s.OrderID())
	if err != nil {
		return nil, err
	}

	if err = step(s, o, cmd.ActorCourierID(), now()); err != nil {
		return nil, err
	}

	if err = uow.ShipmentRepository().Update(ctx, s); err != nil {
		return nil, err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
