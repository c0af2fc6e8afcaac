package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"quickdrop/internal/adapters/out/postgres"
	"quickdrop/internal/adapters/out/postgres/outboxrepo"
	"quickdrop/internal/adapters/out/postgres/pgtest"
	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/services"
	"quickdrop/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
)

type lifecycleUoWFactory struct {
	f *postgres.GormUnitOfWorkFactory
}

func (l lifecycleUoWFactory) Create() commands.UoW {
	return l.f.Create()
}

type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	pg      *pgtest.Database
	seed    *pgtest.Seeder
	factory *postgres.GormUnitOfWorkFactory
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}

func (s *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	s.Require().NoError(err)
	s.pg = pg
	s.factory = postgres.NewGormUnitOfWorkFactory(pg.DB)
}

func (s *UnitOfWorkIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate())
	s.seed = pgtest.NewSeeder(s.pg.DB)
}

func (s *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if s.pg != nil {
		s.Require().NoError(s.pg.Terminate(context.Background()))
	}
}

func (s *UnitOfWorkIntegrationTestSuite) placeOrder() pgtest.Delivery {
	ctx := context.Background()
	c, err := s.seed.Customer(ctx)
	s.Require().NoError(err)
	d, err := s.seed.Order(ctx, c.ID(), time.Now().UTC())
	s.Require().NoError(err)
	return d
}

func (s *UnitOfWorkIntegrationTestSuite) outboxRows() []outboxrepo.OutboxEventDTO {
	var rows []outboxrepo.OutboxEventDTO
	s.Require().NoError(s.pg.DB.Order("occurred_at, id").Find(&rows).Error)
	return rows
}

func (s *UnitOfWorkIntegrationTestSuite) TestCommit_AppendsShipmentEventsToOutbox() {
	ctx := context.Background()
	d := s.placeOrder()
	c, err := s.seed.Courier(ctx, pgtest.AvailableCourier("Kofi", 4.5))
	s.Require().NoError(err)

	var observed []kernel.DomainEvent
	factory := s.factory.WithEventObserver(func(events []kernel.DomainEvent) {
		observed = append(observed, events...)
	})

	uow := factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	sh, err := uow.ShipmentRepository().GetForUpdate(ctx, d.Shipment.ID())
	s.Require().NoError(err)
	s.Require().NoError(sh.Assign(c.ID(), time.Now().UTC()))
	s.Require().NoError(uow.ShipmentRepository().Update(ctx, sh))
	s.Require().NoError(uow.Commit(ctx))

	rows := s.outboxRows()
	s.Require().Len(rows, 1)
	s.Equal(shipment.EventAssigned, rows[0].EventType)
	s.Equal(sh.ID().Bytes(), rows[0].AggregateID)
	s.Nil(rows[0].PublishedAt)
	s.Contains(string(rows[0].Payload), c.ID().String())

	s.Len(observed, 1)
	s.Empty(sh.DomainEvents(), "events are cleared after commit")
}

func (s *UnitOfWorkIntegrationTestSuite) TestCommit_AggregateTrackedTwiceWritesEventsOnce() {
	ctx := context.Background()
	c, err := s.seed.Courier(ctx, pgtest.AvailableCourier("Ama", 4))
	s.Require().NoError(err)

	addr := s.seed.Address("Oxford Street 1, Accra", 5.556, -0.1969)
	sh, err := shipment.NewShipment(kernel.NewUUID(), kernel.NewUUID(), addr, addr, time.Now().UTC())
	s.Require().NoError(err)

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	s.Require().NoError(uow.ShipmentRepository().Add(ctx, sh))
	s.Require().NoError(sh.Assign(c.ID(), time.Now().UTC()))
	s.Require().NoError(uow.ShipmentRepository().Update(ctx, sh))
	s.Require().NoError(uow.Commit(ctx))

	rows := s.outboxRows()
	s.Require().Len(rows, 1)
	s.Equal(shipment.EventAssigned, rows[0].EventType)
}

func (s *UnitOfWorkIntegrationTestSuite) TestRollback_DiscardsRowsAndEvents() {
	ctx := context.Background()
	d := s.placeOrder()
	c, err := s.seed.Courier(ctx, pgtest.AvailableCourier("Yaw", 3))
	s.Require().NoError(err)

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	sh, err := uow.ShipmentRepository().GetForUpdate(ctx, d.Shipment.ID())
	s.Require().NoError(err)
	s.Require().NoError(sh.Assign(c.ID(), time.Now().UTC()))
	s.Require().NoError(uow.ShipmentRepository().Update(ctx, sh))
	s.Require().NoError(uow.Rollback(ctx))

	stored, err := s.factory.Create().ShipmentRepository().Get(ctx, d.Shipment.ID())
	s.Require().NoError(err)
	s.Equal(shipment.Unassigned, stored.Status())
	s.Empty(s.outboxRows())
}

func (s *UnitOfWorkIntegrationTestSuite) TestRollback_WithoutTransactionIsNoop() {
	s.NoError(s.factory.Create().Rollback(context.Background()))
}

func (s *UnitOfWorkIntegrationTestSuite) TestCommit_WithoutBegin_Fails() {
	s.Error(s.factory.Create().Commit(context.Background()))
}

func (s *UnitOfWorkIntegrationTestSuite) TestConcurrentAssignmentOfOneShipment_ExactlyOneWins() {
	ctx := context.Background()
	d := s.placeOrder()

	const racers = 6
	couriers := make([]kernel.UUID, racers)
	for i := range couriers {
		c, err := s.seed.Courier(ctx, pgtest.AvailableCourier("", 4))
		s.Require().NoError(err)
		couriers[i] = c.ID()
	}

	handler := commands.NewAssignShipmentCommandHandler(
		lifecycleUoWFactory{s.factory}, services.NewShipmentLifecycle(1), services.NewCourierDispatcher(1))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for _, courierID := range couriers {
		wg.Add(1)
		go func(courierID kernel.UUID) {
			defer wg.Done()
			cmd, err := commands.NewAssignShipmentCommand(d.Shipment.ID(), &courierID)
			if err == nil {
				_, err = handler.Handle(ctx, cmd)
			}
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}(courierID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, errs.ErrInvalidTransition)
	}
	s.Equal(1, succeeded)

	uow := s.factory.Create()
	stored, err := uow.ShipmentRepository().Get(ctx, d.Shipment.ID())
	s.Require().NoError(err)
	s.Equal(shipment.Assigned, stored.Status())
	s.EqualValues(1, stored.Version())

	o, err := uow.OrderRepository().Get(ctx, d.Order.ID())
	s.Require().NoError(err)
	s.Equal(order.Assigned, o.Status())
	s.Len(s.outboxRows(), 1)
}

func (s *UnitOfWorkIntegrationTestSuite) TestConcurrentAssignmentToOneCourier_RespectsCapacity() {
	ctx := context.Background()
	first := s.placeOrder()
	second := s.placeOrder()
	c, err := s.seed.Courier(ctx, pgtest.AvailableCourier("Esi", 5))
	s.Require().NoError(err)
	courierID := c.ID()

	handler := commands.NewAssignShipmentCommandHandler(
		lifecycleUoWFactory{s.factory}, services.NewShipmentLifecycle(1), services.NewCourierDispatcher(1))

	errCh := make(chan error, 2)
	var wg sync.WaitGroup
	for _, d := range []pgtest.Delivery{first, second} {
		wg.Add(1)
		go func(shipmentID kernel.UUID) {
			defer wg.Done()
			cmd, err := commands.NewAssignShipmentCommand(shipmentID, &courierID)
			if err == nil {
				_, err = handler.Handle(ctx, cmd)
			}
			errCh <- err
		}(d.Shipment.ID())
	}
	wg.Wait()
	close(errCh)

	var failures []error
	for err := range errCh {
		if err != nil {
			failures = append(failures, err)
		}
	}
	s.Require().Len(failures, 1)
	s.ErrorIs(failures[0], errs.ErrCourierUnavailable)

	active, err := s.factory.Create().ShipmentRepository().CountActiveByCourier(ctx, courierID)
	s.Require().NoError(err)
	s.Equal(1, active)
}

func (s *UnitOfWorkIntegrationTestSuite) TestFailShipment_FailsPendingPaymentInSameTransaction() {
	ctx := context.Background()
	d := s.placeOrder()

	handler := commands.NewFailShipmentCommandHandler(lifecycleUoWFactory{s.factory}, services.NewShipmentLifecycle(1))
	cmd, err := commands.NewFailShipmentCommand(d.Shipment.ID(), nil, "address not found")
	s.Require().NoError(err)

	failed, err := handler.Handle(ctx, cmd)
	s.Require().NoError(err)
	s.Equal(shipment.Failed, failed.Status())

	uow := s.factory.Create()
	s.Require().NoError(uow.Begin(ctx))
	defer func() { _ = uow.Rollback(ctx) }()

	p, err := uow.PaymentRepository().GetByShipmentIDForUpdate(ctx, d.Shipment.ID())
	s.Require().NoError(err)
	s.Equal(payment.Failed, p.Status())

	o, err := uow.OrderRepository().GetForUpdate(ctx, d.Order.ID())
	s.Require().NoError(err)
	s.Equal(order.Failed, o.Status())
}
