package commands

import (
	"errors"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

var ErrHeartbeatCommandIsNotConstructed = errors.New(
	"HeartbeatCommand must be created via NewHeartbeatCommand constructor",
)

const maxLocationAddressLength = 255

// HeartbeatCommand marks the courier online and records where it is.
type HeartbeatCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	location  kernel.GeoPoint
	address   string

	guard guard.ConstructorGuard
}

// NewHeartbeatCommand validates the coordinates up front.
func NewHeartbeatCommand(courierID kernel.UUID, lat, lng float64, address string) (HeartbeatCommand, error) {
	point, err := kernel.NewGeoPoint(lat, lng)

	errList := []error{courierID.Validate(), err}
	if len(address) > maxLocationAddressLength {
		errList = append(errList, errs.NewValueIsOutOfRangeError("address length", len(address), 0, maxLocationAddressLength))
	}
	if err = errors.Join(errList...); err != nil {
		return HeartbeatCommand{}, err
	}

	return HeartbeatCommand{
		courierID: courierID,
		location:  point,
		address:   address,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c HeartbeatCommand) Validate() error {
	return c.guard.Validate(ErrHeartbeatCommandIsNotConstructed)
}

func (c HeartbeatCommand) CourierID() kernel.UUID    { return c.courierID }
func (c HeartbeatCommand) Location() kernel.GeoPoint { return c.location }
func (c HeartbeatCommand) Address() string           { return c.address }
