package order

import (
	"fmt"

	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/errs"
)

// Status mirrors the lifecycle stage of the order's shipment as seen by the customer.
type Status string

const (
	Created   Status = "created"
	Assigned  Status = "assigned"
	PickedUp  Status = "picked_up"
	InTransit Status = "in_transit"
	Delivered Status = "delivered"
	Failed    Status = "failed"
	Cancelled Status = "cancelled"
)

var mirror = map[shipment.Status]Status{
	shipment.Unassigned: Created,
	shipment.Assigned:   Assigned,
	shipment.PickedUp:   PickedUp,
	shipment.InTransit:  InTransit,
	shipment.Delivered:  Delivered,
	shipment.Failed:     Failed,
}

// Statuses returns every order status.
func Statuses() []Status {
	return []Status{Created, Assigned, PickedUp, InTransit, Delivered, Failed, Cancelled}
}

// MirrorOf is the order status implied by a shipment status. A failed shipment
// maps to cancelled when the failure was a cancellation.
func MirrorOf(s shipment.Status, cancelled bool) (Status, error) {
	if s == shipment.Failed && cancelled {
		return Cancelled, nil
	}
	status, ok := mirror[s]
	if !ok {
		return "", errs.NewValueIsInvalidErrorWithCause("shipment status", fmt.Errorf("%q has no order mirror", string(s)))
	}
	return status, nil
}

// ParseStatus returns a validation error for anything outside the closed set.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

func (s Status) Validate() error {
	for _, known := range Statuses() {
		if s == known {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("order status", fmt.Errorf("%q is not a valid status", string(s)))
}

func (s Status) String() string {
	return string(s)
}
