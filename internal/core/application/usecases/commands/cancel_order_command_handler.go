package commands

import (
	"context"

	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/services"
)

type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  services.ShipmentLifecycle
}

// NewCancelOrderCommandHandler creates a handler for order cancellation.
func NewCancelOrderCommandHandler(uowFactory UoWFactory, lifecycle services.ShipmentLifecycle) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

// Handle locks the order's shipment first so that cancellation serializes with
// assignment and pickup on the same row.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*order.Order, error) {
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

	s, err := uow.ShipmentRepository().GetByOrderIDForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	p, err := uow.PaymentRepository().GetByShipmentIDForUpdate(ctx, s.ID())
	if err != nil {
		return nil, err
	}

	if err = h.lifecycle.Cancel(s, o, p, cmd.ActorCustomerID(), cmd.Reason(), now()); err != nil {
		return nil, err
	}

	if err = persistTermination(ctx, uow, s, o, p); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func persistTermination(ctx context.Context, uow UoW, s *shipment.Shipment, o *order.Order, p *payment.Payment) error {
	if err := uow.ShipmentRepository().Update(ctx, s); err != nil {
		return err
	}
	if err := uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	return uow.PaymentRepository().Update(ctx, p)
}
