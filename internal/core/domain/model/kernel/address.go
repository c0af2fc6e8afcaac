package kernel

import (
	"strings"

	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

const maxAddressLineLength = 255

var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError("address must be created via NewAddress")

// Address is a street line with its coordinates. Orders and shipments embed it by value,
// so every row carries one authoritative copy.
type Address struct {
	line  string
	point GeoPoint
	guard guard.ConstructorGuard
}

func NewAddress(line string, point GeoPoint) (Address, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Address{}, errs.NewValueIsRequiredError("address line")
	}
	if len(line) > maxAddressLineLength {
		return Address{}, errs.NewValueIsOutOfRangeError("address line length", len(line), 1, maxAddressLineLength)
	}
	if err := point.Validate(); err != nil {
		return Address{}, err
	}
	return Address{line: line, point: point, guard: guard.NewConstructorGuard()}, nil
}

func (a Address) Line() string {
	return a.line
}

func (a Address) Point() GeoPoint {
	return a.point
}

func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}
