package commands

import (
	"errors"
	"slices"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/guard"
)

var (
	ErrAssignShipmentCommandIsNotConstructed = errors.New(
		"AssignShipmentCommand must be created via NewAssignShipmentCommand or NewAcceptShipmentCommand",
	)
	ErrAutoAssignNextCommandIsNotConstructed = errors.New(
		"AutoAssignNextCommand must be created via NewAutoAssignNextCommand",
	)
)

// AssignShipmentCommand binds an unassigned shipment to a courier.
//
// A dispatcher either names the courier or leaves it nil to let the dispatcher
// service pick the best available one. When a courier accepts a shipment itself,
// presence and verification are required just as for automatic assignment.
type AssignShipmentCommand struct { //nolint:recvcheck //using for validation
	shipmentID      kernel.UUID
	courierID       *kernel.UUID
	requirePresence bool

	guard guard.ConstructorGuard
}

// NewAssignShipmentCommand is issued by staff. courierID nil selects automatically.
func NewAssignShipmentCommand(shipmentID kernel.UUID, courierID *kernel.UUID) (AssignShipmentCommand, error) {
	if err := shipmentID.Validate(); err != nil {
		return AssignShipmentCommand{}, err
	}

	cmd := AssignShipmentCommand{
		shipmentID:      shipmentID,
		requirePresence: courierID == nil,
		guard:           guard.NewConstructorGuard(),
	}
	if courierID != nil {
		if err := courierID.Validate(); err != nil {
			return AssignShipmentCommand{}, err
		}
		id := *courierID
		cmd.courierID = &id
	}

	return cmd, nil
}

// NewAcceptShipmentCommand is issued by the courier taking the shipment.
func NewAcceptShipmentCommand(shipmentID, actorCourierID kernel.UUID) (AssignShipmentCommand, error) {
	if err := errors.Join(shipmentID.Validate(), actorCourierID.Validate()); err != nil {
		return AssignShipmentCommand{}, err
	}

	return AssignShipmentCommand{
		shipmentID:      shipmentID,
		courierID:       &actorCourierID,
		requirePresence: true,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

func (c AssignShipmentCommand) Validate() error {
	return c.guard.Validate(ErrAssignShipmentCommandIsNotConstructed)
}

func (c AssignShipmentCommand) ShipmentID() kernel.UUID { return c.shipmentID }

// CourierID is nil for automatic selection.
func (c AssignShipmentCommand) CourierID() *kernel.UUID {
	if c.courierID == nil {
		return nil
	}
	id := *c.courierID
	return &id
}

func (c AssignShipmentCommand) RequirePresence() bool { return c.requirePresence }

// AutoAssignNextCommand takes the oldest unassigned shipment that no other worker
// holds and assigns the best available courier to it.
type AutoAssignNextCommand struct {
	skip  []kernel.UUID
	guard guard.ConstructorGuard
}

// NewAutoAssignNextCommand lets the handler pick the shipment. Shipments in skip are
// passed over; the job uses this to get past a shipment that keeps failing.
func NewAutoAssignNextCommand(skip ...kernel.UUID) AutoAssignNextCommand {
	return AutoAssignNextCommand{skip: slices.Clone(skip), guard: guard.NewConstructorGuard()}
}

func (c AutoAssignNextCommand) Validate() error {
	return c.guard.Validate(ErrAutoAssignNextCommandIsNotConstructed)
}

func (c AutoAssignNextCommand) Skip() []kernel.UUID { return c.skip }
