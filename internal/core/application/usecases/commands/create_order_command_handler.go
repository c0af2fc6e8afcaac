package commands

import (
	"context"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
)

// PlacedOrder is the result of CreateOrderCommand.
type PlacedOrder struct {
	Order    *order.Order
	Shipment *shipment.Shipment
	Payment  *payment.Payment
}

type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
}

// NewCreateOrderCommandHandler creates a handler for placing orders.
func NewCreateOrderCommandHandler(uowFactory UoWFactory) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle checks that the customer exists and persists order, shipment and payment
// in one transaction.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (PlacedOrder, error) {
	if err := cmd.Validate(); err != nil {
		return PlacedOrder{}, err
	}

	at := now()
	o, err := order.NewOrder(kernel.NewUUID(), cmd.CustomerID(), cmd.Pickup(), cmd.Dropoff(), cmd.Total(), at)
	if err != nil {
		return PlacedOrder{}, err
	}
	s, err := shipment.NewShipment(kernel.NewUUID(), o.ID(), cmd.Pickup(), cmd.Dropoff(), at)
	if err != nil {
		return PlacedOrder{}, err
	}
	p, err := payment.NewPayment(kernel.NewUUID(), s.ID(), cmd.Method(), at)
	if err != nil {
		return PlacedOrder{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return PlacedOrder{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if _, err = uow.CustomerRepository().Get(ctx, cmd.CustomerID()); err != nil {
		return PlacedOrder{}, err
	}
	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return PlacedOrder{}, err
	}
	if err = uow.ShipmentRepository().Add(ctx, s); err != nil {
		return PlacedOrder{}, err
	}
	if err = uow.PaymentRepository().Add(ctx, p); err != nil {
		return PlacedOrder{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return PlacedOrder{}, err
	}

	return PlacedOrder{Order: o, Shipment: s, Payment: p}, nil
}
