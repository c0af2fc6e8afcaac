package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/services"
	"quickdrop/internal/pkg/errs"
)

// ErrNoUnassignedShipment is returned by AutoAssignNextCommandHandler when the
// queue is empty or every unassigned shipment is held by another worker.
var ErrNoUnassignedShipment = errors.New("no unassigned shipment to assign")

// ShipmentAssignmentError ties an automatic assignment failure to the shipment it
// was working on. It unwraps to the underlying error.
type ShipmentAssignmentError struct {
	ShipmentID kernel.UUID
	Err        error
}

func (e *ShipmentAssignmentError) Error() string {
	return fmt.Sprintf("auto assign shipment %s: %v", e.ShipmentID, e.Err)
}

func (e *ShipmentAssignmentError) Unwrap() error {
	return e.Err
}

type AssignShipmentCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  services.ShipmentLifecycle
	dispatcher services.CourierDispatcher
}

// NewAssignShipmentCommandHandler creates a handler for manual assignment.
func NewAssignShipmentCommandHandler(
	uowFactory UoWFactory,
	lifecycle services.ShipmentLifecycle,
	dispatcher services.CourierDispatcher,
) AssignShipmentCommandHandler {
	return AssignShipmentCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
		dispatcher: dispatcher,
	}
}

// Handle locks the shipment, its order and the courier, re-checks availability under
// the courier lock and persists the assignment. Of two concurrent assignments of the
// same shipment exactly one succeeds; the other sees an invalid transition.
func (h AssignShipmentCommandHandler) Handle(ctx context.Context, cmd AssignShipmentCommand) (*shipment.Shipment, error) {
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

	o, err := lockOrderForAssign(ctx, uow, s)
	if err != nil {
		return nil, err
	}

	a := assigner{uow: uow, lifecycle: h.lifecycle, dispatcher: h.dispatcher, now: now()}
	if courierID := cmd.CourierID(); courierID != nil {
		err = a.assignTo(ctx, s, o, *courierID, cmd.RequirePresence())
	} else {
		err = a.assignBest(ctx, s, o)
	}
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

type AutoAssignNextCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  services.ShipmentLifecycle
	dispatcher services.CourierDispatcher
}

// NewAutoAssignNextCommandHandler creates a handler that assigns the oldest
// unassigned shipment to the best available courier.
func NewAutoAssignNextCommandHandler(
	uowFactory UoWFactory,
	lifecycle services.ShipmentLifecycle,
	dispatcher services.CourierDispatcher,
) AutoAssignNextCommandHandler {
	return AutoAssignNextCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
		dispatcher: dispatcher,
	}
}

// Handle returns ErrNoUnassignedShipment when there is nothing to do and
// errs.NoCourierAvailableError when the shipment has to wait for the next run. Any
// failure after a shipment was picked comes wrapped in a ShipmentAssignmentError.
func (h AutoAssignNextCommandHandler) Handle(ctx context.Context, cmd AutoAssignNextCommand) (*shipment.Shipment, error) {
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

	s, err := uow.ShipmentRepository().GetOldestUnassignedForUpdate(ctx, cmd.Skip())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, ErrNoUnassignedShipment
		}
		return nil, err
	}

	if err = h.assign(ctx, uow, s); err != nil {
		return nil, &ShipmentAssignmentError{ShipmentID: s.ID(), Err: err}
	}
	return s, nil
}

func (h AutoAssignNextCommandHandler) assign(ctx context.Context, uow UoW, s *shipment.Shipment) error {
	o, err := lockOrderForAssign(ctx, uow, s)
	if err != nil {
		return err
	}

	a := assigner{uow: uow, lifecycle: h.lifecycle, dispatcher: h.dispatcher, now: now()}
	if err = a.assignBest(ctx, s, o); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

// assigner runs inside an open unit of work that already holds the shipment and
// order locks. Couriers are locked last.
type assigner struct {
	uow        UoW
	lifecycle  services.ShipmentLifecycle
	dispatcher services.CourierDispatcher
	now        time.Time
}

func (a assigner) assignTo(
	ctx context.Context,
	s *shipment.Shipment,
	o *order.Order,
	courierID kernel.UUID,
	requirePresence bool,
) error {
	c, err := a.uow.CourierRepository().GetForUpdate(ctx, courierID)
	if err != nil {
		return err
	}
	return a.tryAssign(ctx, s, o, c, requirePresence)
}

// assignBest walks the ranked candidates. Each is locked and re-checked because the
// candidate list is read without locks; a courier that became unavailable meanwhile
// is skipped.
func (a assigner) assignBest(ctx context.Context, s *shipment.Shipment, o *order.Order) error {
	candidates, err := a.uow.CourierRepository().ListAssignable(ctx, a.dispatcher.MaxActive())
	if err != nil {
		return err
	}
	ranked := a.dispatcher.Rank(candidates)

	for _, candidate := range ranked {
		c, err := a.uow.CourierRepository().GetForUpdate(ctx, candidate.Courier.ID())
		if err != nil {
			return err
		}

		err = a.tryAssign(ctx, s, o, c, true)
		if errors.Is(err, errs.ErrCourierUnavailable) {
			continue
		}
		return err
	}

	return errs.NewNoCourierAvailableError(s.ID().String(), len(ranked))
}

func (a assigner) tryAssign(
	ctx context.Context,
	s *shipment.Shipment,
	o *order.Order,
	c *courier.Courier,
	requirePresence bool,
) error {
	load, err := a.uow.ShipmentRepository().CountActiveByCourier(ctx, c.ID())
	if err != nil {
		return err
	}

	if err = a.lifecycle.Assign(s, o, c, load, requirePresence, a.now); err != nil {
		return err
	}

	if err = a.uow.ShipmentRepository().Update(ctx, s); err != nil {
		return err
	}
	return a.uow.OrderRepository().Update(ctx, o)
}

// lockOrderForAssign rejects a shipment that is no longer unassigned before any
// courier is touched.
func lockOrderForAssign(ctx context.Context, uow UoW, s *shipment.Shipment) (*order.Order, error) {
	if err := s.CanApply(shipment.OpAssign); err != nil {
		return nil, err
	}
	return uow.OrderRepository().GetForUpdate(ctx, s.OrderID())
}
