package services

import (
	"errors"
	"fmt"
	"time"

	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/errs"
)

// ShipmentLifecycle executes lifecycle operations across the aggregates they touch:
// the shipment moves through its transition table, the order mirrors the new status
// and, on failure or cancellation, a pending payment is failed.
//
// It validates everything before mutating, so a returned error leaves all aggregates
// unchanged. Persisting the result atomically is the caller's unit of work.
type ShipmentLifecycle struct {
	maxActive int
}

func NewShipmentLifecycle(maxActive int) ShipmentLifecycle {
	return ShipmentLifecycle{maxActive: maxActive}
}

// Assign binds s to c. The shipment status is checked before the courier so a
// shipment that is no longer unassigned always reports an invalid transition.
// requirePresence is set by automatic assignment.
func (l ShipmentLifecycle) Assign(
	s *shipment.Shipment,
	o *order.Order,
	c *courier.Courier,
	activeShipments int,
	requirePresence bool,
	now time.Time,
) error {
	if err := errors.Join(c.Validate(), l.checkPair(s, o)); err != nil {
		return err
	}
	if err := s.CanApply(shipment.OpAssign); err != nil {
		return err
	}
	if err := c.CheckAvailability(activeShipments, l.maxActive, requirePresence); err != nil {
		return err
	}

	if err := s.Assign(c.ID(), now); err != nil {
		return err
	}
	return o.SyncWith(s.Status(), false)
}

func (l ShipmentLifecycle) ConfirmPickup(s *shipment.Shipment, o *order.Order, actorCourierID kernel.UUID, now time.Time) error {
	if err := l.checkPair(s, o); err != nil {
		return err
	}
	if err := s.ConfirmPickup(actorCourierID, now); err != nil {
		return err
	}
	return o.SyncWith(s.Status(), false)
}

func (l ShipmentLifecycle) StartDelivery(s *shipment.Shipment, o *order.Order, actorCourierID kernel.UUID, now time.Time) error {
	if err := l.checkPair(s, o); err != nil {
		return err
	}
	if err := s.StartDelivery(actorCourierID, now); err != nil {
		return err
	}
	return o.SyncWith(s.Status(), false)
}

func (l ShipmentLifecycle) CompleteDelivery(s *shipment.Shipment, o *order.Order, actorCourierID kernel.UUID, now time.Time) error {
	if err := l.checkPair(s, o); err != nil {
		return err
	}
	if err := s.CompleteDelivery(actorCourierID, now); err != nil {
		return err
	}
	return o.SyncWith(s.Status(), false)
}

// Fail ends the shipment. actorCourierID is nil when a dispatcher acts.
func (l ShipmentLifecycle) Fail(
	s *shipment.Shipment,
	o *order.Order,
	p *payment.Payment,
	actorCourierID *kernel.UUID,
	reason string,
	now time.Time,
) error {
	if err := errors.Join(l.checkPair(s, o), l.checkPayment(s, p)); err != nil {
		return err
	}
	if err := s.Fail(actorCourierID, reason, now); err != nil {
		return err
	}
	p.FailIfPending()
	return o.SyncWith(s.Status(), false)
}

// Cancel withdraws the order. actorCustomerID is nil when staff cancel; otherwise
// the customer must own the order.
func (l ShipmentLifecycle) Cancel(
	s *shipment.Shipment,
	o *order.Order,
	p *payment.Payment,
	actorCustomerID *kernel.UUID,
	reason string,
	now time.Time,
) error {
	if err := errors.Join(l.checkPair(s, o), l.checkPayment(s, p)); err != nil {
		return err
	}
	if actorCustomerID != nil && !o.IsOwnedBy(*actorCustomerID) {
		return errs.NewNotAssignedToActorError("order", o.ID().String(), actorCustomerID.String())
	}
	if err := s.Cancel(reason, now); err != nil {
		return err
	}
	p.FailIfPending()
	return o.SyncWith(s.Status(), true)
}

func (l ShipmentLifecycle) checkPair(s *shipment.Shipment, o *order.Order) error {
	if err := errors.Join(s.Validate(), o.Validate()); err != nil {
		return err
	}
	if !s.OrderID().IsEqual(o.ID()) {
		return errs.NewValueIsInvalidErrorWithCause("order",
			fmt.Errorf("shipment %s belongs to order %s, not %s", s.ID(), s.OrderID(), o.ID()))
	}
	return nil
}

func (l ShipmentLifecycle) checkPayment(s *shipment.Shipment, p *payment.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.ShipmentID().IsEqual(s.ID()) {
		return errs.NewValueIsInvalidErrorWithCause("payment",
			fmt.Errorf("payment %s belongs to shipment %s, not %s", p.ID(), p.ShipmentID(), s.ID()))
	}
	return nil
}
