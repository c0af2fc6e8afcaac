package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork for each command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is one transaction scoped to exactly one logical operation. Repositories
// obtained from it after Begin run inside the transaction. On Commit the domain events
// of every aggregate written through them are appended to the outbox before the
// transaction commits; Rollback discards everything.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	ShipmentRepository() ShipmentRepository
	OrderRepository() OrderRepository
	CourierRepository() CourierRepository
	PaymentRepository() PaymentRepository
	UserRepository() UserRepository
	CustomerRepository() CustomerRepository
	OutboxRepository() OutboxRepository
}
