package commands_test

import (
	"context"
	"testing"
	"time"

	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/customer"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/model/user"
	"quickdrop/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockShipmentRepository struct{ mock.Mock }

func (m *MockShipmentRepository) Add(ctx context.Context, s *shipment.Shipment) error {
	return m.Called(ctx, s).Error(0)
}
func (m *MockShipmentRepository) Update(ctx context.Context, s *shipment.Shipment) error {
	return m.Called(ctx, s).Error(0)
}
func (m *MockShipmentRepository) Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*shipment.Shipment)
	return s, args.Error(1)
}
func (m *MockShipmentRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*shipment.Shipment)
	return s, args.Error(1)
}
func (m *MockShipmentRepository) GetByOrderIDForUpdate(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*shipment.Shipment)
	return s, args.Error(1)
}
func (m *MockShipmentRepository) GetOldestUnassignedForUpdate(ctx context.Context, skip []kernel.UUID) (*shipment.Shipment, error) {
	args := m.Called(ctx, skip)
	s, _ := args.Get(0).(*shipment.Shipment)
	return s, args.Error(1)
}
func (m *MockShipmentRepository) CountActiveByCourier(ctx context.Context, id kernel.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}
func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}
func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}
func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

type MockCourierRepository struct{ mock.Mock }

func (m *MockCourierRepository) Add(ctx context.Context, c *courier.Courier) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*courier.Courier)
	return c, args.Error(1)
}
func (m *MockCourierRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*courier.Courier)
	return c, args.Error(1)
}
func (m *MockCourierRepository) UpdateStatus(ctx context.Context, c *courier.Courier) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockCourierRepository) UpdatePresence(ctx context.Context, c *courier.Courier) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockCourierRepository) UpdateVerification(ctx context.Context, c *courier.Courier) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockCourierRepository) UpdateRating(ctx context.Context, c *courier.Courier) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockCourierRepository) ListAssignable(ctx context.Context, maxActive int) ([]courier.Candidate, error) {
	args := m.Called(ctx, maxActive)
	c, _ := args.Get(0).([]courier.Candidate)
	return c, args.Error(1)
}
func (m *MockCourierRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockPaymentRepository struct{ mock.Mock }

func (m *MockPaymentRepository) Add(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *MockPaymentRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}
func (m *MockPaymentRepository) GetByShipmentIDForUpdate(ctx context.Context, id kernel.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

type MockCustomerRepository struct{ mock.Mock }

func (m *MockCustomerRepository) Add(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}
func (m *MockCustomerRepository) Get(ctx context.Context, id kernel.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Add(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *MockUserRepository) Get(ctx context.Context, id kernel.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

type MockOutboxRepository struct{ mock.Mock }

func (m *MockOutboxRepository) Append(ctx context.Context, events []kernel.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}
func (m *MockOutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	args := m.Called(ctx, limit)
	msgs, _ := args.Get(0).([]ports.OutboxMessage)
	return msgs, args.Error(1)
}
func (m *MockOutboxRepository) MarkPublished(ctx context.Context, ids []kernel.UUID, at time.Time) error {
	return m.Called(ctx, ids, at).Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, messages []ports.OutboxMessage) error {
	return m.Called(ctx, messages).Error(0)
}

// MockUoW implements every narrowed unit of work.
type MockUoW struct {
	mock.Mock

	shipments *MockShipmentRepository
	orders    *MockOrderRepository
	couriers  *MockCourierRepository
	payments  *MockPaymentRepository
	customers *MockCustomerRepository
	users     *MockUserRepository
	outbox    *MockOutboxRepository
}

func newMockUoW() *MockUoW {
	return &MockUoW{
		shipments: new(MockShipmentRepository),
		orders:    new(MockOrderRepository),
		couriers:  new(MockCourierRepository),
		payments:  new(MockPaymentRepository),
		customers: new(MockCustomerRepository),
		users:     new(MockUserRepository),
		outbox:    new(MockOutboxRepository),
	}
}

func (m *MockUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockUoW) ShipmentRepository() ports.ShipmentRepository { return m.shipments }
func (m *MockUoW) OrderRepository() ports.OrderRepository       { return m.orders }
func (m *MockUoW) CourierRepository() ports.CourierRepository   { return m.couriers }
func (m *MockUoW) PaymentRepository() ports.PaymentRepository   { return m.payments }
func (m *MockUoW) CustomerRepository() ports.CustomerRepository { return m.customers }
func (m *MockUoW) UserRepository() ports.UserRepository         { return m.users }
func (m *MockUoW) OutboxRepository() ports.OutboxRepository     { return m.outbox }

// expectTx registers Begin, an optional Commit and the deferred Rollback.
func (m *MockUoW) expectTx(ctx context.Context, commit bool) {
	m.On("Begin", ctx).Return(nil).Once()
	if commit {
		m.On("Commit", ctx).Return(nil).Once()
	}
	m.On("Rollback", ctx).Return(nil).Once()
}

func (m *MockUoW) assertAll(t *testing.T) {
	t.Helper()
	m.AssertExpectations(t)
	m.shipments.AssertExpectations(t)
	m.orders.AssertExpectations(t)
	m.couriers.AssertExpectations(t)
	m.payments.AssertExpectations(t)
	m.customers.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.outbox.AssertExpectations(t)
}

type factory struct{ uow *MockUoW }

func (f factory) Create() commands.UoW { return f.uow }

type courierFactory struct{ uow *MockUoW }

func (f courierFactory) Create() commands.CourierUoW { return f.uow }

type registrationFactory struct{ uow *MockUoW }

func (f registrationFactory) Create() commands.RegistrationUoW { return f.uow }

type outboxFactory struct{ uow *MockUoW }

func (f outboxFactory) Create() commands.OutboxUoW { return f.uow }

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func addr(t *testing.T, line string) kernel.Address {
	t.Helper()
	p, err := kernel.NewGeoPoint(5.6037, -0.187)
	require.NoError(t, err)
	a, err := kernel.NewAddress(line, p)
	require.NoError(t, err)
	return a
}

type delivery struct {
	order    *order.Order
	shipment *shipment.Shipment
	payment  *payment.Payment
}

func newDelivery(t *testing.T, customerID kernel.UUID) delivery {
	t.Helper()
	total, err := kernel.NewMoney(2550)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), customerID, addr(t, "Ring Road 1"), addr(t, "Oxford St 9"), total, t0)
	require.NoError(t, err)
	s, err := shipment.NewShipment(kernel.NewUUID(), o.ID(), o.Pickup(), o.Dropoff(), t0)
	require.NoError(t, err)
	p, err := payment.NewPayment(kernel.NewUUID(), s.ID(), payment.Cash, t0)
	require.NoError(t, err)
	return delivery{order: o, shipment: s, payment: p}
}

// assignedDelivery returns a delivery already assigned to courierID with the order mirrored.
func assignedDelivery(t *testing.T, courierID kernel.UUID) delivery {
	t.Helper()
	d := newDelivery(t, kernel.NewUUID())
	require.NoError(t, d.shipment.Assign(courierID, t0))
	require.NoError(t, d.order.SyncWith(d.shipment.Status(), false))
	d.shipment.ClearDomainEvents()
	return d
}

// availableCourier is active, verified and online.
func availableCourier(t *testing.T, rating int) *courier.Courier {
	t.Helper()
	c, err := courier.NewCourier(kernel.NewUUID(), kernel.NewUUID(), "Kofi Mensah", "gr-1234-26", t0)
	require.NoError(t, err)
	require.NoError(t, c.ChangeStatus(courier.Active))
	c.Verify()
	p, err := kernel.NewGeoPoint(5.6, -0.18)
	require.NoError(t, err)
	require.NoError(t, c.Heartbeat(p, "Osu", t0))
	if rating > 0 {
		require.NoError(t, c.RecordRating(rating))
	}
	return c
}
