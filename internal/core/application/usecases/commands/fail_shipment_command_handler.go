package commands

import (
	"context"

	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/services"
)

type FailShipmentCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  services.ShipmentLifecycle
}

// NewFailShipmentCommandHandler creates a handler for failed deliveries.
func NewFailShipmentCommandHandler(uowFactory UoWFactory, lifecycle services.ShipmentLifecycle) FailShipmentCommandHandler {
	return FailShipmentCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

// Handle fails the shipment, mirrors the order and fails a still pending payment.
func (h FailShipmentCommandHandler) Handle(ctx context.Context, cmd FailShipmentCommand) (*shipment.Shipment, error) {
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

	s, err := uow.ShipmentRepository().GetForUpdate(ctx, cmd.ShipmentID())
	if err != nil {
		return nil, err
	}
	o, err := uow.OrderRepository().GetForUpdate(ctx, s.OrderID())
	if err != nil {
		return nil, err
	}
	p, err := uow.PaymentRepository().GetByShipmentIDForUpdate(ctx, s.ID())
	if err != nil {
		return nil, err
	}

	if err = h.lifecycle.Fail(s, o, p, cmd.ActorCourierID(), cmd.Reason(), now()); err != nil {
		return nil, err
	}

	if err = persistTermination(ctx, uow, s, o, p); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
