package paymentrepo_test

import (
	"context"
	"testing"
	"time"

	"quickdrop/internal/adapters/out/postgres/paymentrepo"
	"quickdrop/internal/adapters/out/postgres/pgtest"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

type PaymentRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	repository *paymentrepo.GormPaymentRepository
}

func TestPaymentRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(PaymentRepositoryIntegrationTestSuite))
}

func (s *PaymentRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	s.Require().NoError(err)
	s.pg = pg
}

func (s *PaymentRepositoryIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate())
	tracker := new(MockAggregateTracker)
	tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	s.repository = paymentrepo.NewGormPaymentRepository(s.pg.DB, tracker)
}

func (s *PaymentRepositoryIntegrationTestSuite) TearDownSuite() {
	if s.pg != nil {
		s.Require().NoError(s.pg.Terminate(context.Background()))
	}
}

func (s *PaymentRepositoryIntegrationTestSuite) TestSettleThenRefund() {
	ctx := context.Background()
	p, err := payment.NewPayment(kernel.NewUUID(), kernel.NewUUID(), payment.Momo, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.repository.Add(ctx, p))

	locked, err := s.repository.GetByShipmentIDForUpdate(ctx, p.ShipmentID())
	s.Require().NoError(err)
	paidAt := time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC)
	s.Require().NoError(locked.Settle(paidAt))
	s.Require().NoError(s.repository.Update(ctx, locked))

	locked, err = s.repository.GetForUpdate(ctx, p.ID())
	s.Require().NoError(err)
	s.Equal(payment.Paid, locked.Status())
	s.Equal(payment.Momo, locked.Method())
	s.Require().NotNil(locked.PaidAt())
	s.True(paidAt.Equal(*locked.PaidAt()))

	s.Require().NoError(locked.Refund())
	s.Require().NoError(s.repository.Update(ctx, locked))

	stored, err := s.repository.GetForUpdate(ctx, p.ID())
	s.Require().NoError(err)
	s.Equal(payment.Refunded, stored.Status())
}

func (s *PaymentRepositoryIntegrationTestSuite) TestSecondPaymentForShipment_IsRejected() {
	ctx := context.Background()
	shipmentID := kernel.NewUUID()
	first, err := payment.NewPayment(kernel.NewUUID(), shipmentID, payment.Cash, time.Now().UTC())
	s.Require().NoError(err)
	second, err := payment.NewPayment(kernel.NewUUID(), shipmentID, payment.Card, time.Now().UTC())
	s.Require().NoError(err)

	s.Require().NoError(s.repository.Add(ctx, first))
	err = s.repository.Add(ctx, second)
	s.ErrorIs(err, errs.ErrValueIsInvalid)
	s.Contains(err.Error(), "shipment_id")
}

func (s *PaymentRepositoryIntegrationTestSuite) TestMissing_IsNotFound() {
	ctx := context.Background()
	_, err := s.repository.GetForUpdate(ctx, kernel.NewUUID())
	s.ErrorIs(err, errs.ErrObjectNotFound)
	_, err = s.repository.GetByShipmentIDForUpdate(ctx, kernel.NewUUID())
	s.ErrorIs(err, errs.ErrObjectNotFound)
}
