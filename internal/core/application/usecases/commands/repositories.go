// Package commands contains the operations that change system state.
// Every command is validated by its constructor and executed by a handler that
// opens one unit of work, locks what it mutates, and commits or rolls back as a whole.
package commands

import (
	"context"
	"time"

	"quickdrop/internal/core/ports"
)

// Unit of Work interfaces narrowed to what each group of handlers needs.
// ports.UnitOfWork satisfies all of them.
type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	ShipmentRepoFactory interface {
		ShipmentRepository() ports.ShipmentRepository
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	CourierRepoFactory interface {
		CourierRepository() ports.CourierRepository
	}

	PaymentRepoFactory interface {
		PaymentRepository() ports.PaymentRepository
	}

	CustomerRepoFactory interface {
		CustomerRepository() ports.CustomerRepository
	}

	UserRepoFactory interface {
		UserRepository() ports.UserRepository
	}

	OutboxRepoFactory interface {
		OutboxRepository() ports.OutboxRepository
	}

	// UoW spans the aggregates touched by the delivery lifecycle.
	//
	//   uow := factory.Create()
	//   if err := uow.Begin(ctx); err != nil {
	//       return err
	//   }
	//   defer func() { _ = uow.Rollback(ctx) }()
	//
	//   s, err := uow.ShipmentRepository().GetForUpdate(ctx, id)
	//   // ... mutate and update
	//   return uow.Commit(ctx)
	UoW interface {
		TxManager
		ShipmentRepoFactory
		OrderRepoFactory
		CourierRepoFactory
		PaymentRepoFactory
		CustomerRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}

	// CourierUoW is used by availability commands that only touch couriers.
	CourierUoW interface {
		TxManager
		CourierRepoFactory
	}

	CourierUoWFactory interface {
		Create() CourierUoW
	}

	// RegistrationUoW creates an account and its role record in one transaction.
	RegistrationUoW interface {
		TxManager
		UserRepoFactory
		CustomerRepoFactory
		CourierRepoFactory
	}

	RegistrationUoWFactory interface {
		Create() RegistrationUoW
	}

	OutboxUoW interface {
		TxManager
		OutboxRepoFactory
	}

	OutboxUoWFactory interface {
		Create() OutboxUoW
	}
)

// now is the clock of every handler.
var now = func() time.Time {
	return time.Now().UTC()
}
