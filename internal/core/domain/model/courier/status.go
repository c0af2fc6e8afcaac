package courier

import (
	"fmt"

	"quickdrop/internal/pkg/errs"
)

// Status is the dispatcher controlled standing of a courier. Only active couriers
// can receive new shipments; changing it never touches shipments already assigned.
type Status string

const (
	Active   Status = "active"
	Inactive Status = "inactive"
	OffShift Status = "offshift"
	Banned   Status = "banned"
)

// Statuses returns every courier status.
func Statuses() []Status {
	return []Status{Active, Inactive, OffShift, Banned}
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
	switch s {
	case Active, Inactive, OffShift, Banned:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("courier status", fmt.Errorf("%q is not a valid status", string(s)))
	}
}

func (s Status) isShift() bool {
	return s == Active || s == OffShift
}

func (s Status) String() string {
	return string(s)
}
