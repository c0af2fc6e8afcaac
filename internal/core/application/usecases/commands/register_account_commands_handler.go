package commands

import (
	"context"

	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/customer"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/user"
)

// RegisteredAccount holds the created user and exactly one of Customer or Courier.
type RegisteredAccount struct {
	User     *user.User
	Customer *customer.Customer
	Courier  *courier.Courier
}

type RegisterAccountCommandHandler struct {
	uowFactory RegistrationUoWFactory
}

// NewRegisterAccountCommandHandler creates a handler for customer and courier sign up.
func NewRegisterAccountCommandHandler(uowFactory RegistrationUoWFactory) RegisterAccountCommandHandler {
	return RegisterAccountCommandHandler{uowFactory: uowFactory}
}

// Handle creates the user and its customer or courier profile in one transaction.
func (h RegisterAccountCommandHandler) Handle(ctx context.Context, cmd RegisterAccountCommand) (RegisteredAccount, error) {
	if err := cmd.Validate(); err != nil {
		return RegisteredAccount{}, err
	}

	at := now()
	role := user.RoleCustomer
	if cmd.IsCourier() {
		role = user.RoleCourier
	}

	u, err := user.NewUser(kernel.NewUUID(), cmd.Username(), cmd.Email(), cmd.Phone(), role, at)
	if err != nil {
		return RegisteredAccount{}, err
	}
	account := RegisteredAccount{User: u}
	if cmd.IsCourier() {
		account.Courier, err = courier.NewCourier(kernel.NewUUID(), u.ID(), cmd.Name(), cmd.VehiclePlate(), at)
	} else {
		account.Customer, err = customer.NewCustomer(kernel.NewUUID(), u.ID(), at)
	}
	if err != nil {
		return RegisteredAccount{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return RegisteredAccount{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.UserRepository().Add(ctx, u); err != nil {
		return RegisteredAccount{}, err
	}
	if account.Courier != nil {
		err = uow.CourierRepository().Add(ctx, account.Courier)
	} else {
		err = uow.CustomerRepository().Add(ctx, account.Customer)
	}
	if err != nil {
		return RegisteredAccount{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return RegisteredAccount{}, err
	}
	return account, nil
}
