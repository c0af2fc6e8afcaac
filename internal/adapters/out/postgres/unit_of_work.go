// Package postgres provides the GORM-based Unit of Work that every command runs in.
//
// A unit of work is one transaction scoped to one logical operation:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	if err := uow.ShipmentRepository().Update(ctx, s); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
//
// Repositories obtained after Begin share the transaction. Aggregates written through
// them are tracked, and on Commit their pending domain events are appended to the
// outbox before the transaction commits, so a state change and its event are stored
// together or not at all.
//
// A unit of work is not safe for concurrent use; every goroutine creates its own.
package postgres

import (
	"context"

	"quickdrop/internal/adapters/out/postgres/accountrepo"
	"quickdrop/internal/adapters/out/postgres/courierrepo"
	"quickdrop/internal/adapters/out/postgres/orderrepo"
	"quickdrop/internal/adapters/out/postgres/outboxrepo"
	"quickdrop/internal/adapters/out/postgres/paymentrepo"
	"quickdrop/internal/adapters/out/postgres/shipmentrepo"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/ports"
	"quickdrop/internal/pkg/dberrs"

	"gorm.io/gorm"
)

// eventSource is implemented by aggregates that record domain events.
type eventSource interface {
	DomainEvents() []kernel.DomainEvent
	ClearDomainEvents()
}

// EventObserver is told about the events of every committed unit of work.
type EventObserver func(events []kernel.DomainEvent)

type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate any
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection pool.
type GormUnitOfWorkFactory struct {
	db       *gorm.DB
	observer EventObserver
}

func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// WithEventObserver returns a factory whose units of work report committed events to fn.
func (f *GormUnitOfWorkFactory) WithEventObserver(fn EventObserver) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: f.db, observer: fn}
}

func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:       f.db,
		observer: f.observer,
	}
}

type GormUnitOfWork struct {
	db       *gorm.DB
	tx       *gorm.DB
	observer EventObserver

	trackedAggregates []trackedAggregate
}

// Begin opens the transaction. Calling it again while one is open is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return dberrs.Classify("begin transaction", tx.Error)
	}

	uow.tx = tx
	uow.trackedAggregates = nil
	return nil
}

// Commit writes the tracked aggregates' events to the outbox and commits. The events
// are cleared from the aggregates only once the commit succeeded.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	sources := uow.eventSources()
	var events []kernel.DomainEvent
	for _, src := range sources {
		events = append(events, src.DomainEvents()...)
	}

	if len(events) > 0 {
		if err := outboxrepo.NewGormOutboxRepository(uow.tx.WithContext(ctx)).Append(ctx, events); err != nil {
			return err
		}
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	uow.trackedAggregates = nil
	if err != nil {
		return dberrs.Classify("commit transaction", err)
	}

	for _, src := range sources {
		src.ClearDomainEvents()
	}
	if uow.observer != nil && len(events) > 0 {
		uow.observer(events)
	}
	return nil
}

// Rollback discards the transaction. Without an open transaction it does nothing, so
// it can be deferred unconditionally after Begin.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return nil
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = nil
	return err
}

func (uow *GormUnitOfWork) ShipmentRepository() ports.ShipmentRepository {
	return shipmentrepo.NewGormShipmentRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) CourierRepository() ports.CourierRepository {
	return courierrepo.NewGormCourierRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) PaymentRepository() ports.PaymentRepository {
	return paymentrepo.NewGormPaymentRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) UserRepository() ports.UserRepository {
	return accountrepo.NewGormUserRepository(uow.conn())
}

func (uow *GormUnitOfWork) CustomerRepository() ports.CustomerRepository {
	return accountrepo.NewGormCustomerRepository(uow.conn())
}

func (uow *GormUnitOfWork) OutboxRepository() ports.OutboxRepository {
	return outboxrepo.NewGormOutboxRepository(uow.conn())
}

// TrackAggregate is called by repositories for every aggregate they add or update.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate any) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

// conn is the open transaction, or the pool when none was begun.
func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

// eventSources returns each tracked aggregate instance once, in tracking order.
func (uow *GormUnitOfWork) eventSources() []eventSource {
	seen := make(map[any]struct{}, len(uow.trackedAggregates))
	var out []eventSource
	for _, t := range uow.trackedAggregates {
		src, ok := t.Aggregate.(eventSource)
		if !ok {
			continue
		}
		if _, dup := seen[t.Aggregate]; dup {
			continue
		}
		seen[t.Aggregate] = struct{}{}
		out = append(out, src)
	}
	return out
}
