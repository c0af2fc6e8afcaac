package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrNotAssignedToActor = errors.New("not assigned to actor")
	ErrCourierUnavailable = errors.New("courier unavailable")
	ErrNoCourierAvailable = errors.New("no courier available")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// InvalidTransitionError reports that Entity with ID cannot perform Operation
// while in Current. AllowedFrom lists the states the operation is legal from.
type InvalidTransitionError struct {
	Entity      string
	ID          string
	Operation   string
	Current     string
	AllowedFrom []string
	Cause       error
}

func NewInvalidTransitionError(entity, id, operation, current string, allowedFrom []string) *InvalidTransitionError {
	return &InvalidTransitionError{
		Entity:      entity,
		ID:          id,
		Operation:   operation,
		Current:     current,
		AllowedFrom: allowedFrom,
	}
}

func NewInvalidTransitionErrorWithCause(
	entity, id, operation, current string,
	allowedFrom []string,
	cause error,
) *InvalidTransitionError {
	e := NewInvalidTransitionError(entity, id, operation, current, allowedFrom)
	e.Cause = cause
	return e
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s %s %s: current status is %s",
		strings.ReplaceAll(e.Operation, "_", " "), e.Entity, e.ID, e.Current)
	if len(e.AllowedFrom) > 0 {
		msg += fmt.Sprintf(", allowed from %s", strings.Join(e.AllowedFrom, ", "))
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// StaleVersionError is returned by storage when a guarded update finds the row
// at a different version than the one that was read. It is reported as an
// invalid transition because a concurrent writer already moved the entity.
type StaleVersionError struct {
	Entity  string
	ID      string
	Version int64
}

func NewStaleVersionError(entity, id string, version int64) *StaleVersionError {
	return &StaleVersionError{Entity: entity, ID: id, Version: version}
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently (expected version %d)", e.Entity, e.ID, e.Version)
}

func (e *StaleVersionError) Unwrap() error {
	return ErrInvalidTransition
}

// NotAssignedToActorError reports that ActorID is not the party bound to the entity.
type NotAssignedToActorError struct {
	Entity  string
	ID      string
	ActorID string
	Cause   error
}

func NewNotAssignedToActorError(entity, id, actorID string) *NotAssignedToActorError {
	return &NotAssignedToActorError{Entity: entity, ID: id, ActorID: actorID}
}

func NewNotAssignedToActorErrorWithCause(entity, id, actorID string, cause error) *NotAssignedToActorError {
	return &NotAssignedToActorError{Entity: entity, ID: id, ActorID: actorID, Cause: cause}
}

func (e *NotAssignedToActorError) Error() string {
	msg := fmt.Sprintf("%s: %s %s is not assigned to %s", ErrNotAssignedToActor, e.Entity, e.ID, e.ActorID)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *NotAssignedToActorError) Unwrap() error {
	return ErrNotAssignedToActor
}

// Reasons a courier cannot take a shipment.
const (
	ReasonNotActive   = "not_active"
	ReasonOffline     = "offline"
	ReasonNotVerified = "not_verified"
	ReasonAtCapacity  = "at_capacity"
)

// CourierUnavailableError reports why a specific courier cannot be assigned.
type CourierUnavailableError struct {
	CourierID string
	Reason    string
	Status    string
	Cause     error
}

func NewCourierUnavailableError(courierID, reason, status string) *CourierUnavailableError {
	return &CourierUnavailableError{CourierID: courierID, Reason: reason, Status: status}
}

func NewCourierUnavailableErrorWithCause(courierID, reason, status string, cause error) *CourierUnavailableError {
	return &CourierUnavailableError{CourierID: courierID, Reason: reason, Status: status, Cause: cause}
}

func (e *CourierUnavailableError) Error() string {
	msg := fmt.Sprintf("%s: courier %s is %s (status: %s)", ErrCourierUnavailable, e.CourierID, e.Reason, e.Status)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *CourierUnavailableError) Unwrap() error {
	return ErrCourierUnavailable
}

// NoCourierAvailableError reports that automatic assignment found no candidate.
type NoCourierAvailableError struct {
	ShipmentID string
	Considered int
}

func NewNoCourierAvailableError(shipmentID string, considered int) *NoCourierAvailableError {
	return &NoCourierAvailableError{ShipmentID: shipmentID, Considered: considered}
}

func (e *NoCourierAvailableError) Error() string {
	return fmt.Sprintf("%s for shipment %s (%d candidates considered)", ErrNoCourierAvailable, e.ShipmentID, e.Considered)
}

func (e *NoCourierAvailableError) Unwrap() error {
	return ErrNoCourierAvailable
}

// StorageUnavailableError wraps a storage or transport fault. The core never retries it.
type StorageUnavailableError struct {
	Operation string
	Cause     error
}

func NewStorageUnavailableError(operation string, cause error) *StorageUnavailableError {
	return &StorageUnavailableError{Operation: operation, Cause: cause}
}

func (e *StorageUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrStorageUnavailable, e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrStorageUnavailable, e.Operation)
}

func (e *StorageUnavailableError) Unwrap() error {
	return ErrStorageUnavailable
}
