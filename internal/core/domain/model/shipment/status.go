package shipment

import (
	"fmt"

	"quickdrop/internal/pkg/errs"
)

// Status is the lifecycle stage of a shipment. It is persisted as its string value.
//
//	unassigned -> assigned -> picked_up -> in_transit -> delivered
//	                              └──────────────────────> delivered
//
// Every non-terminal status can fail; unassigned and assigned can also be cancelled,
// which ends in failed as well. delivered and failed are terminal.
type Status string

const (
	Unassigned Status = "unassigned"
	Assigned   Status = "assigned"
	PickedUp   Status = "picked_up"
	InTransit  Status = "in_transit"
	Delivered  Status = "delivered"
	Failed     Status = "failed"
)

// Operation is a request to move a shipment along its lifecycle.
type Operation string

const (
	OpAssign           Operation = "assign"
	OpConfirmPickup    Operation = "confirm_pickup"
	OpStartDelivery    Operation = "start_delivery"
	OpCompleteDelivery Operation = "complete_delivery"
	OpFail             Operation = "fail"
	OpCancel           Operation = "cancel"
)

// transitions is the complete lifecycle table. A (status, operation) pair that is
// absent is an invalid transition.
var transitions = map[Status]map[Operation]Status{
	Unassigned: {
		OpAssign: Assigned,
		OpFail:   Failed,
		OpCancel: Failed,
	},
	Assigned: {
		OpConfirmPickup: PickedUp,
		OpFail:          Failed,
		OpCancel:        Failed,
	},
	PickedUp: {
		OpStartDelivery:    InTransit,
		OpCompleteDelivery: Delivered,
		OpFail:             Failed,
	},
	InTransit: {
		OpCompleteDelivery: Delivered,
		OpFail:             Failed,
	},
	Delivered: {},
	Failed:    {},
}

var humanLabels = map[Status]string{
	Unassigned: "Awaiting assignment",
	Assigned:   "En route to pickup",
	PickedUp:   "Picked up",
	InTransit:  "In transit",
	Delivered:  "Delivered",
	Failed:     "Delivery failed",
}

// Statuses returns every status in lifecycle order.
func Statuses() []Status {
	return []Status{Unassigned, Assigned, PickedUp, InTransit, Delivered, Failed}
}

// ActiveStatuses are the non-terminal statuses that occupy a courier.
func ActiveStatuses() []Status {
	return []Status{Assigned, PickedUp, InTransit}
}

// Operations returns every lifecycle operation.
func Operations() []Operation {
	return []Operation{OpAssign, OpConfirmPickup, OpStartDelivery, OpCompleteDelivery, OpFail, OpCancel}
}

// ParseStatus returns a validation error for anything outside the closed set.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

// Validate accepts only statuses present in the transition table.
func (s Status) Validate() error {
	if _, ok := transitions[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("shipment status", fmt.Errorf("%q is not a valid status", string(s)))
	}
	return nil
}

func (s Status) String() string {
	return string(s)
}

// Next returns the status reached by applying op, and false when the pair is not in the table.
func (s Status) Next(op Operation) (Status, bool) {
	next, ok := transitions[s][op]
	return next, ok
}

// IsTerminal reports whether no operation can leave s.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed
}

// IsActive reports whether a shipment in this status counts against its courier's load.
func (s Status) IsActive() bool {
	return s == Assigned || s == PickedUp || s == InTransit
}

// HumanLabel is the customer facing description of the status.
func (s Status) HumanLabel() string {
	if label, ok := humanLabels[s]; ok {
		return label
	}
	return string(s)
}

// AllowedFrom lists, in lifecycle order, the statuses op can be applied from.
func AllowedFrom(op Operation) []Status {
	var out []Status
	for _, s := range Statuses() {
		if _, ok := transitions[s][op]; ok {
			out = append(out, s)
		}
	}
	return out
}

func allowedFromStrings(op Operation) []string {
	from := AllowedFrom(op)
	out := make([]string, len(from))
	for i, s := range from {
		out[i] = string(s)
	}
	return out
}
