package commands

import (
	"errors"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

var ErrFailShipmentCommandIsNotConstructed = errors.New(
	"FailShipmentCommand must be created via NewFailShipmentCommand constructor",
)

// FailShipmentCommand ends a shipment unsuccessfully. The assigned courier reports
// it with its own id; a dispatcher passes a nil actor.
type FailShipmentCommand struct { //nolint:recvcheck //using for validation
	shipmentID     kernel.UUID
	actorCourierID *kernel.UUID
	reason         string

	guard guard.ConstructorGuard
}

// NewFailShipmentCommand takes a nil actor for staff, who may fail any shipment.
func NewFailShipmentCommand(shipmentID kernel.UUID, actorCourierID *kernel.UUID, reason string) (FailShipmentCommand, error) {
	cmd := FailShipmentCommand{
		shipmentID: shipmentID,
		reason:     reason,
		guard:      guard.NewConstructorGuard(),
	}

	errList := []error{shipmentID.Validate()}
	if actorCourierID != nil {
		errList = append(errList, actorCourierID.Validate())
		id := *actorCourierID
		cmd.actorCourierID = &id
	}
	if reason == "" {
		errList = append(errList, errs.NewValueIsRequiredError("reason"))
	}
	if err := errors.Join(errList...); err != nil {
		return FailShipmentCommand{}, err
	}

	return cmd, nil
}

func (c FailShipmentCommand) Validate() error {
	return c.guard.Validate(ErrFailShipmentCommandIsNotConstructed)
}

func (c FailShipmentCommand) ShipmentID() kernel.UUID { return c.shipmentID }
func (c FailShipmentCommand) Reason() string          { return c.reason }

func (c FailShipmentCommand) ActorCourierID() *kernel.UUID {
	if c.actorCourierID == nil {
		return nil
	}
	id := *c.actorCourierID
	return &id
}
