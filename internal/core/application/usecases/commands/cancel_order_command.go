package commands

import (
	"errors"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/guard"
)

var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand withdraws an order before pickup. A customer may cancel only
// their own order; staff pass a nil actor.
type CancelOrderCommand struct { //nolint:recvcheck //using for validation
	orderID         kernel.UUID
	actorCustomerID *kernel.UUID
	reason          string

	guard guard.ConstructorGuard
}

// NewCancelOrderCommand takes a nil actor for staff, who may cancel any order.
func NewCancelOrderCommand(orderID kernel.UUID, actorCustomerID *kernel.UUID, reason string) (CancelOrderCommand, error) {
	cmd := CancelOrderCommand{
		orderID: orderID,
		reason:  reason,
		guard:   guard.NewConstructorGuard(),
	}

	errList := []error{orderID.Validate()}
	if actorCustomerID != nil {
		errList = append(errList, actorCustomerID.Validate())
		id := *actorCustomerID
		cmd.actorCustomerID = &id
	}
	if err := errors.Join(errList...); err != nil {
		return CancelOrderCommand{}, err
	}

	return cmd, nil
}

func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

func (c CancelOrderCommand) OrderID() kernel.UUID { return c.orderID }
func (c CancelOrderCommand) Reason() string       { return c.reason }

func (c CancelOrderCommand) ActorCustomerID() *kernel.UUID {
	if c.actorCustomerID == nil {
		return nil
	}
	id := *c.actorCustomerID
	return &id
}
