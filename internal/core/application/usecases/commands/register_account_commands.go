package commands

import (
	"errors"

	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

var ErrRegisterAccountCommandIsNotConstructed = errors.New(
	"RegisterAccountCommand must be created via NewRegisterCustomerCommand or NewRegisterCourierCommand",
)

// RegisterAccountCommand creates a user together with its customer or courier record.
// Field formats are checked by the user and courier aggregates.
type RegisterAccountCommand struct { //nolint:recvcheck //using for validation
	username string
	email    string
	phone    string

	// courier only
	courier      bool
	name         string
	vehiclePlate string

	guard guard.ConstructorGuard
}

// NewRegisterCustomerCommand signs up a customer.
func NewRegisterCustomerCommand(username, email, phone string) (RegisterAccountCommand, error) {
	if err := requireAccountFields(username, email, phone); err != nil {
		return RegisterAccountCommand{}, err
	}
	return RegisterAccountCommand{
		username: username,
		email:    email,
		phone:    phone,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// NewRegisterCourierCommand signs up a courier, who starts inactive and unverified.
func NewRegisterCourierCommand(username, email, phone, name, vehiclePlate string) (RegisterAccountCommand, error) {
	errList := []error{requireAccountFields(username, email, phone)}
	if name == "" {
		errList = append(errList, errs.NewValueIsRequiredError("name"))
	}
	if err := errors.Join(errList...); err != nil {
		return RegisterAccountCommand{}, err
	}
	return RegisterAccountCommand{
		username:     username,
		email:        email,
		phone:        phone,
		courier:      true,
		name:         name,
		vehiclePlate: vehiclePlate,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func requireAccountFields(username, email, phone string) error {
	fields := []struct{ name, value string }{
		{"username", username},
		{"email", email},
		{"phone", phone},
	}

	var errList []error
	for _, f := range fields {
		if f.value == "" {
			errList = append(errList, errs.NewValueIsRequiredError(f.name))
		}
	}
	return errors.Join(errList...)
}

func (c RegisterAccountCommand) Validate() error {
	return c.guard.Validate(ErrRegisterAccountCommandIsNotConstructed)
}

func (c RegisterAccountCommand) Username() string     { return c.username }
func (c RegisterAccountCommand) Email() string        { return c.email }
func (c RegisterAccountCommand) Phone() string        { return c.phone }
func (c RegisterAccountCommand) IsCourier() bool      { return c.courier }
func (c RegisterAccountCommand) Name() string         { return c.name }
func (c RegisterAccountCommand) VehiclePlate() string { return c.vehiclePlate }
