package services_test

import (
	"testing"
	"time"

	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/services"
	"quickdrop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 10, 8, 30, 0, 0, time.UTC)

type fixture struct {
	shipment *shipment.Shipment
	order    *order.Order
	payment  *payment.Payment
	customer kernel.UUID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	p, err := kernel.NewGeoPoint(5.6, -0.2)
	require.NoError(t, err)
	pickup, err := kernel.NewAddress("Makola Market", p)
	require.NoError(t, err)
	dropoff, err := kernel.NewAddress("East Legon", p)
	require.NoError(t, err)
	total, err := kernel.NewMoney(3000)
	require.NoError(t, err)

	customerID := kernel.NewUUID()
	o, err := order.NewOrder(kernel.NewUUID(), customerID, pickup, dropoff, total, now)
	require.NoError(t, err)
	s, err := shipment.NewShipment(kernel.NewUUID(), o.ID(), pickup, dropoff, now)
	require.NoError(t, err)
	pay, err := payment.NewPayment(kernel.NewUUID(), s.ID(), payment.Cash, now)
	require.NoError(t, err)

	return fixture{shipment: s, order: o, payment: pay, customer: customerID}
}

func activeCourier(t *testing.T, rating float64, createdAt time.Time) *courier.Courier {
	t.Helper()
	p, _ := kernel.NewGeoPoint(5.6, -0.2)
	c, err := courier.Restore(courier.State{
		ID: kernel.NewUUID(), UserID: kernel.NewUUID(), Name: "Rider", Status: courier.Active,
		Online: true, Verified: true, Location: &p, Rating: rating, CreatedAt: createdAt,
	})
	require.NoError(t, err)
	return c
}

func TestShipmentLifecycle_RoundTripKeepsOrderInStep(t *testing.T) {
	f := newFixture(t)
	c := activeCourier(t, 4, now)
	l := services.NewShipmentLifecycle(1)

	require.NoError(t, l.Assign(f.shipment, f.order, c, 0, false, now))
	assert.Equal(t, order.Assigned, f.order.Status())

	require.NoError(t, l.ConfirmPickup(f.shipment, f.order, c.ID(), now.Add(time.Minute)))
	assert.Equal(t, order.PickedUp, f.order.Status())

	require.NoError(t, l.StartDelivery(f.shipment, f.order, c.ID(), now.Add(2*time.Minute)))
	assert.Equal(t, order.InTransit, f.order.Status())

	require.NoError(t, l.CompleteDelivery(f.shipment, f.order, c.ID(), now.Add(3*time.Minute)))
	assert.Equal(t, order.Delivered, f.order.Status())
	assert.Equal(t, shipment.Delivered, f.shipment.Status())
	assert.Equal(t, payment.Pending, f.payment.Status(), "delivery never settles a payment")
}

func TestShipmentLifecycle_Assign(t *testing.T) {
	l := services.NewShipmentLifecycle(1)

	t.Run("banned courier is unavailable", func(t *testing.T) {
		f := newFixture(t)
		c := activeCourier(t, 5, now)
		require.NoError(t, c.ChangeStatus(courier.Banned))

		err := l.Assign(f.shipment, f.order, c, 0, false, now)

		require.ErrorIs(t, err, errs.ErrCourierUnavailable)
		assert.Equal(t, shipment.Unassigned, f.shipment.Status())
		assert.Equal(t, order.Created, f.order.Status())
	})

	t.Run("courier at capacity", func(t *testing.T) {
		f := newFixture(t)
		err := l.Assign(f.shipment, f.order, activeCourier(t, 5, now), 1, false, now)

		var unavailable *errs.CourierUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, errs.ReasonAtCapacity, unavailable.Reason)
	})

	t.Run("already assigned wins over courier checks", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, l.Assign(f.shipment, f.order, activeCourier(t, 5, now), 0, false, now))
		banned := activeCourier(t, 5, now)
		require.NoError(t, banned.ChangeStatus(courier.Banned))

		err := l.Assign(f.shipment, f.order, banned, 0, false, now)

		require.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("mismatched order", func(t *testing.T) {
		f := newFixture(t)
		other := newFixture(t)

		err := l.Assign(f.shipment, other.order, activeCourier(t, 5, now), 0, false, now)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestShipmentLifecycle_BannedCourierFinishesInFlightWork(t *testing.T) {
	f := newFixture(t)
	c := activeCourier(t, 5, now)
	l := services.NewShipmentLifecycle(1)
	require.NoError(t, l.Assign(f.shipment, f.order, c, 0, false, now))
	require.NoError(t, l.ConfirmPickup(f.shipment, f.order, c.ID(), now))
	require.NoError(t, l.StartDelivery(f.shipment, f.order, c.ID(), now))

	require.NoError(t, c.ChangeStatus(courier.Banned))

	require.NoError(t, l.CompleteDelivery(f.shipment, f.order, c.ID(), now.Add(time.Hour)))
	next := newFixture(t)
	require.ErrorIs(t, l.Assign(next.shipment, next.order, c, 0, false, now), errs.ErrCourierUnavailable)
}

func TestShipmentLifecycle_FailAndCancel(t *testing.T) {
	l := services.NewShipmentLifecycle(1)

	t.Run("fail marks pending payment failed", func(t *testing.T) {
		f := newFixture(t)
		c := activeCourier(t, 5, now)
		require.NoError(t, l.Assign(f.shipment, f.order, c, 0, false, now))
		courierID := c.ID()

		require.NoError(t, l.Fail(f.shipment, f.order, f.payment, &courierID, "recipient unreachable", now))
		assert.Equal(t, order.Failed, f.order.Status())
		assert.Equal(t, payment.Failed, f.payment.Status())
	})

	t.Run("cancel by owner", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.payment.Settle(now))

		require.NoError(t, l.Cancel(f.shipment, f.order, f.payment, &f.customer, "", now))
		assert.Equal(t, order.Cancelled, f.order.Status())
		assert.Equal(t, shipment.Failed, f.shipment.Status())
		assert.Equal(t, payment.Paid, f.payment.Status(), "paid payments wait for an explicit refund")
	})

	t.Run("cancel by another customer", func(t *testing.T) {
		f := newFixture(t)
		stranger := kernel.NewUUID()

		err := l.Cancel(f.shipment, f.order, f.payment, &stranger, "", now)
		require.ErrorIs(t, err, errs.ErrNotAssignedToActor)
		assert.Equal(t, order.Created, f.order.Status())
		assert.Equal(t, payment.Pending, f.payment.Status())
	})

	t.Run("cancel after pickup is rejected without side effects", func(t *testing.T) {
		f := newFixture(t)
		c := activeCourier(t, 5, now)
		require.NoError(t, l.Assign(f.shipment, f.order, c, 0, false, now))
		require.NoError(t, l.ConfirmPickup(f.shipment, f.order, c.ID(), now))

		err := l.Cancel(f.shipment, f.order, f.payment, nil, "", now)
		require.ErrorIs(t, err, errs.ErrInvalidTransition)
		assert.Equal(t, order.PickedUp, f.order.Status())
		assert.Equal(t, payment.Pending, f.payment.Status())
	})
}

func TestCourierDispatcher_Rank(t *testing.T) {
	d := services.NewCourierDispatcher(2)
	early := now.Add(-48 * time.Hour)

	best := activeCourier(t, 4.9, now)
	sameRatingLessLoad := activeCourier(t, 4.5, now)
	sameRatingMoreLoad := activeCourier(t, 4.5, early)
	sameEverythingEarlier := activeCourier(t, 4.0, early)
	sameEverythingLater := activeCourier(t, 4.0, now)
	offline := activeCourier(t, 5.0, early)
	offline.GoOffline()
	full := activeCourier(t, 5.0, early)

	ranked := d.Rank([]courier.Candidate{
		{Courier: sameEverythingLater},
		{Courier: offline},
		{Courier: sameRatingMoreLoad, ActiveShipments: 1},
		{Courier: full, ActiveShipments: 2},
		{Courier: best, ActiveShipments: 1},
		{Courier: sameEverythingEarlier},
		{Courier: sameRatingLessLoad},
	})

	var got []kernel.UUID
	for _, c := range ranked {
		got = append(got, c.Courier.ID())
	}
	assert.Equal(t, []kernel.UUID{
		best.ID(), sameRatingLessLoad.ID(), sameRatingMoreLoad.ID(), sameEverythingEarlier.ID(), sameEverythingLater.ID(),
	}, got)
	assert.Empty(t, d.Rank(nil))
	assert.Equal(t, 2, d.MaxActive())
}
