package commands

import (
	"errors"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand places a delivery order for a customer. The order, its
// unassigned shipment and a pending payment are created together.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(customerID, pickup, dropoff, total, payment.Cash)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	placed, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	customerID kernel.UUID
	pickup     kernel.Address
	dropoff    kernel.Address
	total      kernel.Money
	method     payment.Method

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates addresses, amount and payment method.
func NewCreateOrderCommand(
	customerID kernel.UUID,
	pickup kernel.Address,
	dropoff kernel.Address,
	total kernel.Money,
	method payment.Method,
) (CreateOrderCommand, error) {
	if err := errors.Join(
		customerID.Validate(),
		pickup.Validate(),
		dropoff.Validate(),
		total.Validate(),
		validateMethod(method),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return CreateOrderCommand{
		customerID: customerID,
		pickup:     pickup,
		dropoff:    dropoff,
		total:      total,
		method:     method,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) CustomerID() kernel.UUID { return c.customerID }
func (c CreateOrderCommand) Pickup() kernel.Address  { return c.pickup }
func (c CreateOrderCommand) Dropoff() kernel.Address { return c.dropoff }
func (c CreateOrderCommand) Total() kernel.Money     { return c.total }
func (c CreateOrderCommand) Method() payment.Method  { return c.method }

func validateMethod(method payment.Method) error {
	_, err := payment.ParseMethod(string(method))
	return err
}
