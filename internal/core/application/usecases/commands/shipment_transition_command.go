package commands

import (
	"errors"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/guard"
)

var ErrShipmentTransitionCommandIsNotConstructed = errors.New(
	"ShipmentTransitionCommand must be created via NewConfirmPickupCommand, " +
		"NewStartDeliveryCommand or NewCompleteDeliveryCommand",
)

// ShipmentTransitionCommand moves a shipment one step forward on behalf of the
// courier it is assigned to.
type ShipmentTransitionCommand struct { //nolint:recvcheck //using for validation
	shipmentID     kernel.UUID
	actorCourierID kernel.UUID
	operation      shipment.Operation

	guard guard.ConstructorGuard
}

// NewConfirmPickupCommand: assigned -> picked_up.
func NewConfirmPickupCommand(shipmentID, actorCourierID kernel.UUID) (ShipmentTransitionCommand, error) {
	return newShipmentTransitionCommand(shipmentID, actorCourierID, shipment.OpConfirmPickup)
}

// NewStartDeliveryCommand: picked_up -> in_transit.
func NewStartDeliveryCommand(shipmentID, actorCourierID kernel.UUID) (ShipmentTransitionCommand, error) {
	return newShipmentTransitionCommand(shipmentID, actorCourierID, shipment.OpStartDelivery)
}

// NewCompleteDeliveryCommand: picked_up or in_transit -> delivered.
func NewCompleteDeliveryCommand(shipmentID, actorCourierID kernel.UUID) (ShipmentTransitionCommand, error) {
	return newShipmentTransitionCommand(shipmentID, actorCourierID, shipment.OpCompleteDelivery)
}

func newShipmentTransitionCommand(
	shipmentID, actorCourierID kernel.UUID,
	op shipment.Operation,
) (ShipmentTransitionCommand, error) {
	if err := errors.Join(shipmentID.Validate(), actorCourierID.Validate()); err != nil {
		return ShipmentTransitionCommand{}, err
	}

	return ShipmentTransitionCommand{
		shipmentID:     shipmentID,
		actorCourierID: actorCourierID,
		operation:      op,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (c ShipmentTransitionCommand) Validate() error {
	return c.guard.Validate(ErrShipmentTransitionCommandIsNotConstructed)
}

func (c ShipmentTransitionCommand) ShipmentID() kernel.UUID       { return c.shipmentID }
func (c ShipmentTransitionCommand) ActorCourierID() kernel.UUID   { return c.actorCourierID }
func (c ShipmentTransitionCommand) Operation() shipment.Operation { return c.operation }
