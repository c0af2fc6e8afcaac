package commands

import (
	"context"

	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/pkg/errs"
)

type RateDeliveryCommandHandler struct {
	uowFactory UoWFactory
}

// NewRateDeliveryCommandHandler creates a handler that records customer ratings.
func NewRateDeliveryCommandHandler(uowFactory UoWFactory) RateDeliveryCommandHandler {
	return RateDeliveryCommandHandler{uowFactory: uowFactory}
}

// Handle rates a delivered order and folds the rating into its courier's average
// in the same transaction.
func (h RateDeliveryCommandHandler) Handle(ctx context.Context, cmd RateDeliveryCommand) (*order.Order, error) {
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

	if err = o.Rate(cmd.ActorCustomerID(), cmd.Rating(), cmd.Feedback()); err != nil {
		return nil, err
	}

	courierID := s.CourierID()
	if courierID == nil {
		return nil, errs.NewValueIsInvalidError("shipment courier")
	}
	c, err := uow.CourierRepository().GetForUpdate(ctx, *courierID)
	if err != nil {
		return nil, err
	}
	if err = c.RecordRating(cmd.Rating()); err != nil {
		return nil, err
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}
	if err = uow.CourierRepository().UpdateRating(ctx, c); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}
