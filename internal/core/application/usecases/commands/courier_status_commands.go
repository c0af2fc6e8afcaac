package commands

import (
	"errors"

	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/guard"
)

var (
	ErrUpdateCourierStatusCommandIsNotConstructed = errors.New(
		"UpdateCourierStatusCommand must be created via NewUpdateCourierStatusCommand or NewChangeOwnShiftCommand",
	)
	ErrCourierPresenceCommandIsNotConstructed = errors.New(
		"CourierPresenceCommand must be created via NewGoOfflineCommand or NewVerifyCourierCommand",
	)
)

// UpdateCourierStatusCommand changes a courier's standing. Staff may set any status;
// a courier acting on itself only switches between active and offshift. Changing the
// status never touches shipments already assigned to the courier.
type UpdateCourierStatusCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	status    courier.Status
	ownShift  bool

	guard guard.ConstructorGuard
}

// NewUpdateCourierStatusCommand is issued by a dispatcher or an admin.
func NewUpdateCourierStatusCommand(courierID kernel.UUID, status string) (UpdateCourierStatusCommand, error) {
	return newUpdateCourierStatusCommand(courierID, status, false)
}

// NewChangeOwnShiftCommand is issued by the courier itself.
func NewChangeOwnShiftCommand(courierID kernel.UUID, status string) (UpdateCourierStatusCommand, error) {
	return newUpdateCourierStatusCommand(courierID, status, true)
}

func newUpdateCourierStatusCommand(
	courierID kernel.UUID,
	status string,
	ownShift bool,
) (UpdateCourierStatusCommand, error) {
	parsed, err := courier.ParseStatus(status)
	if err = errors.Join(courierID.Validate(), err); err != nil {
		return UpdateCourierStatusCommand{}, err
	}

	return UpdateCourierStatusCommand{
		courierID: courierID,
		status:    parsed,
		ownShift:  ownShift,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateCourierStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCourierStatusCommandIsNotConstructed)
}

func (c UpdateCourierStatusCommand) CourierID() kernel.UUID { return c.courierID }
func (c UpdateCourierStatusCommand) Status() courier.Status { return c.status }

// IsOwnShift reports whether the courier is changing its own status.
func (c UpdateCourierStatusCommand) IsOwnShift() bool { return c.ownShift }

type presenceAction int

const (
	actionGoOffline presenceAction = iota + 1
	actionVerify
)

// CourierPresenceCommand covers the single-flag courier changes: going offline and
// staff verification.
type CourierPresenceCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	action    presenceAction

	guard guard.ConstructorGuard
}

// NewGoOfflineCommand takes the courier offline without touching its status.
func NewGoOfflineCommand(courierID kernel.UUID) (CourierPresenceCommand, error) {
	return newCourierPresenceCommand(courierID, actionGoOffline)
}

// NewVerifyCourierCommand marks the courier's documents as checked.
func NewVerifyCourierCommand(courierID kernel.UUID) (CourierPresenceCommand, error) {
	return newCourierPresenceCommand(courierID, actionVerify)
}

func newCourierPresenceCommand(courierID kernel.UUID, action presenceAction) (CourierPresenceCommand, error) {
	if err := courierID.Validate(); err != nil {
		return CourierPresenceCommand{}, err
	}
	return CourierPresenceCommand{
		courierID: courierID,
		action:    action,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c CourierPresenceCommand) Validate() error {
	return c.guard.Validate(ErrCourierPresenceCommandIsNotConstructed)
}

func (c CourierPresenceCommand) CourierID() kernel.UUID { return c.courierID }
