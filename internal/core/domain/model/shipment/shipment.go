package shipment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

const (
	entityName          = "shipment"
	maxReasonLength     = 500
	defaultCancelReason = "cancelled"
)

var ErrShipmentIsNotConstructed = errors.New("Shipment must be created via NewShipment or Restore")

// Shipment is the aggregate the lifecycle state machine drives. Every exported mutator
// either applies one row of the transition table with its side effects or returns a
// typed error and leaves the shipment untouched.
//
// Invariants:
//   - courierID is set for every status except unassigned and a failure before assignment
//   - assignedAt, pickedAt, deliveredAt and failedAt are written once, on entry
//   - deliveredAt is set if and only if the status is delivered
type Shipment struct {
	kernel.EventRecorder

	id            kernel.UUID
	orderID       kernel.UUID
	courierID     *kernel.UUID
	pickup        kernel.Address
	destination   kernel.Address
	status        Status
	version       int64
	failureReason string
	createdAt     time.Time
	assignedAt    *time.Time
	pickedAt      *time.Time
	deliveredAt   *time.Time
	failedAt      *time.Time

	guard guard.ConstructorGuard
}

// NewShipment creates an unassigned shipment for orderID.
func NewShipment(
	id kernel.UUID,
	orderID kernel.UUID,
	pickup kernel.Address,
	destination kernel.Address,
	createdAt time.Time,
) (*Shipment, error) {
	s := &Shipment{
		status:    Unassigned,
		createdAt: createdAt,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		pickup.Validate(),
		destination.Validate(),
	); err != nil {
		return nil, err
	}

	s.id = id
	s.orderID = orderID
	s.pickup = pickup
	s.destination = destination
	return s, nil
}

// State is the persisted form of a shipment, used to rebuild it from storage.
type State struct {
	ID            kernel.UUID
	OrderID       kernel.UUID
	CourierID     *kernel.UUID
	Pickup        kernel.Address
	Destination   kernel.Address
	Status        Status
	Version       int64
	FailureReason string
	CreatedAt     time.Time
	AssignedAt    *time.Time
	PickedAt      *time.Time
	DeliveredAt   *time.Time
	FailedAt      *time.Time
}

// Restore rebuilds a shipment from storage and rejects states that break the lifecycle invariants.
func Restore(st State) (*Shipment, error) {
	if err := errors.Join(
		st.ID.Validate(),
		st.OrderID.Validate(),
		st.Pickup.Validate(),
		st.Destination.Validate(),
		st.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if err := validateState(st); err != nil {
		return nil, err
	}

	return &Shipment{
		id:            st.ID,
		orderID:       st.OrderID,
		courierID:     st.CourierID,
		pickup:        st.Pickup,
		destination:   st.Destination,
		status:        st.Status,
		version:       st.Version,
		failureReason: st.FailureReason,
		createdAt:     st.CreatedAt,
		assignedAt:    st.AssignedAt,
		pickedAt:      st.PickedAt,
		deliveredAt:   st.DeliveredAt,
		failedAt:      st.FailedAt,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func validateState(st State) error {
	invalid := func(format string, args ...any) error {
		return errs.NewValueIsInvalidErrorWithCause("shipment state", fmt.Errorf(format, args...))
	}

	switch {
	case st.Version < 0:
		return invalid("version %d is negative", st.Version)
	case st.Status == Unassigned && st.CourierID != nil:
		return invalid("unassigned shipment has a courier")
	case st.Status.IsActive() || st.Status == Delivered:
		if st.CourierID == nil {
			return invalid("%s shipment has no courier", st.Status)
		}
	}
	if st.CourierID != nil && st.AssignedAt == nil {
		return invalid("assigned shipment has no assigned_at")
	}
	if (st.Status == Delivered) != (st.DeliveredAt != nil) {
		return invalid("delivered_at must be set exactly when delivered")
	}
	if (st.Status == PickedUp || st.Status == InTransit || st.Status == Delivered) && st.PickedAt == nil {
		return invalid("%s shipment has no picked_at", st.Status)
	}
	if (st.Status == Failed) != (st.FailedAt != nil) {
		return invalid("failed_at must be set exactly when failed")
	}
	return nil
}

func (s *Shipment) Validate() error {
	if s == nil {
		return ErrShipmentIsNotConstructed
	}
	return s.guard.Validate(ErrShipmentIsNotConstructed)
}

func (s *Shipment) ID() kernel.UUID             { return s.id }
func (s *Shipment) OrderID() kernel.UUID        { return s.orderID }
func (s *Shipment) Pickup() kernel.Address      { return s.pickup }
func (s *Shipment) Destination() kernel.Address { return s.destination }
func (s *Shipment) Status() Status              { return s.status }
func (s *Shipment) FailureReason() string       { return s.failureReason }
func (s *Shipment) CreatedAt() time.Time        { return s.createdAt }
func (s *Shipment) AssignedAt() *time.Time      { return s.assignedAt }
func (s *Shipment) PickedAt() *time.Time        { return s.pickedAt }
func (s *Shipment) DeliveredAt() *time.Time     { return s.deliveredAt }
func (s *Shipment) FailedAt() *time.Time        { return s.failedAt }

// Version is the optimistic concurrency token read from storage.
func (s *Shipment) Version() int64 {
	return s.version
}

// VersionStored moves the token forward after storage accepted a guarded write,
// so the aggregate matches the row it was written to.
func (s *Shipment) VersionStored() {
	s.version++
}

// CourierID returns the assigned courier, or nil before assignment.
func (s *Shipment) CourierID() *kernel.UUID {
	if s.courierID == nil {
		return nil
	}
	id := *s.courierID
	return &id
}

// IsAssignedTo reports whether courierID is the assigned courier.
func (s *Shipment) IsAssignedTo(courierID kernel.UUID) bool {
	return s.courierID != nil && s.courierID.IsEqual(courierID)
}

// CanApply reports, without mutating, whether op is legal from the current status.
func (s *Shipment) CanApply(op Operation) error {
	_, err := s.next(op)
	return err
}

// Assign binds the shipment to courierID. Courier eligibility is checked by the caller.
func (s *Shipment) Assign(courierID kernel.UUID, now time.Time) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	next, err := s.next(OpAssign)
	if err != nil {
		return err
	}

	s.courierID = &courierID
	setOnce(&s.assignedAt, now)
	s.apply(OpAssign, next, now, nil)
	return nil
}

// ConfirmPickup moves an assigned shipment to picked_up on behalf of its courier.
func (s *Shipment) ConfirmPickup(actorCourierID kernel.UUID, now time.Time) error {
	next, err := s.courierTransition(OpConfirmPickup, actorCourierID)
	if err != nil {
		return err
	}

	setOnce(&s.pickedAt, now)
	s.apply(OpConfirmPickup, next, now, nil)
	return nil
}

// StartDelivery moves a picked up shipment to in_transit on behalf of its courier.
func (s *Shipment) StartDelivery(actorCourierID kernel.UUID, now time.Time) error {
	next, err := s.courierTransition(OpStartDelivery, actorCourierID)
	if err != nil {
		return err
	}

	s.apply(OpStartDelivery, next, now, nil)
	return nil
}

// CompleteDelivery moves a picked up or in transit shipment to delivered.
func (s *Shipment) CompleteDelivery(actorCourierID kernel.UUID, now time.Time) error {
	next, err := s.courierTransition(OpCompleteDelivery, actorCourierID)
	if err != nil {
		return err
	}

	setOnce(&s.deliveredAt, now)
	s.apply(OpCompleteDelivery, next, now, nil)
	return nil
}

// Fail ends a non-terminal shipment. A nil actorCourierID means a dispatcher acts;
// otherwise the actor must be the assigned courier.
func (s *Shipment) Fail(actorCourierID *kernel.UUID, reason string, now time.Time) error {
	reason, err := normalizeReason(reason)
	if err != nil {
		return err
	}
	if reason == "" {
		return errs.NewValueIsRequiredError("failure reason")
	}
	if actorCourierID != nil && !s.IsAssignedTo(*actorCourierID) {
		return errs.NewNotAssignedToActorError(entityName, s.id.String(), actorCourierID.String())
	}
	next, err := s.next(OpFail)
	if err != nil {
		return err
	}

	s.terminate(OpFail, next, reason, now)
	return nil
}

// Cancel withdraws a shipment that has not been picked up yet.
func (s *Shipment) Cancel(reason string, now time.Time) error {
	reason, err := normalizeReason(reason)
	if err != nil {
		return err
	}
	if reason == "" {
		reason = defaultCancelReason
	}
	next, err := s.next(OpCancel)
	if err != nil {
		return err
	}

	s.terminate(OpCancel, next, reason, now)
	return nil
}

// courierTransition checks the actor before the status so a foreign courier learns
// nothing about the shipment. Without an assigned courier there is nobody to compare
// against and the status check reports the failure.
func (s *Shipment) courierTransition(op Operation, actorCourierID kernel.UUID) (Status, error) {
	if err := actorCourierID.Validate(); err != nil {
		return "", err
	}
	if s.courierID != nil && !s.courierID.IsEqual(actorCourierID) {
		return "", errs.NewNotAssignedToActorError(entityName, s.id.String(), actorCourierID.String())
	}
	return s.next(op)
}

func (s *Shipment) next(op Operation) (Status, error) {
	next, ok := s.status.Next(op)
	if !ok {
		return "", errs.NewInvalidTransitionError(
			entityName, s.id.String(), string(op), string(s.status), allowedFromStrings(op))
	}
	return next, nil
}

func (s *Shipment) terminate(op Operation, next Status, reason string, now time.Time) {
	s.failureReason = reason
	setOnce(&s.failedAt, now)
	s.apply(op, next, now, map[string]any{"reason": reason})
}

func (s *Shipment) apply(op Operation, next Status, now time.Time, extra map[string]any) {
	from := s.status
	s.status = next

	payload := map[string]any{
		"shipment_id": s.id.String(),
		"order_id":    s.orderID.String(),
		"from_status": string(from),
		"status":      string(next),
	}
	if s.courierID != nil {
		payload["courier_id"] = s.courierID.String()
	}
	for k, v := range extra {
		payload[k] = v
	}
	s.Record(kernel.NewDomainEvent(s.id, eventByOperation[op], now, payload))
}

func setOnce(field **time.Time, now time.Time) {
	if *field == nil {
		t := now
		*field = &t
	}
}

func normalizeReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return "", errs.NewValueIsOutOfRangeError("reason length", len(reason), 0, maxReasonLength)
	}
	return reason, nil
}
