package commands

import (
	"errors"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/guard"
)

var ErrRateDeliveryCommandIsNotConstructed = errors.New(
	"RateDeliveryCommand must be created via NewRateDeliveryCommand constructor",
)

// RateDeliveryCommand lets the customer rate a delivered order once. The rating
// also feeds the courier's average.
type RateDeliveryCommand struct { //nolint:recvcheck //using for validation
	orderID         kernel.UUID
	actorCustomerID kernel.UUID
	rating          int
	feedback        string

	guard guard.ConstructorGuard
}

// NewRateDeliveryCommand checks identifiers only; range and ownership are the
// order's rules.
func NewRateDeliveryCommand(orderID, actorCustomerID kernel.UUID, rating int, feedback string) (RateDeliveryCommand, error) {
	if err := errors.Join(orderID.Validate(), actorCustomerID.Validate()); err != nil {
		return RateDeliveryCommand{}, err
	}
	return RateDeliveryCommand{
		orderID:         orderID,
		actorCustomerID: actorCustomerID,
		rating:          rating,
		feedback:        feedback,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

func (c RateDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrRateDeliveryCommandIsNotConstructed)
}

func (c RateDeliveryCommand) OrderID() kernel.UUID         { return c.orderID }
func (c RateDeliveryCommand) ActorCustomerID() kernel.UUID { return c.actorCustomerID }
func (c RateDeliveryCommand) Rating() int                  { return c.rating }
func (c RateDeliveryCommand) Feedback() string             { return c.feedback }
