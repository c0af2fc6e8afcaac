package order_test

import (
	"testing"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, customerID kernel.UUID) *order.Order {
	t.Helper()
	p, err := kernel.NewGeoPoint(6.69, -1.62)
	require.NoError(t, err)
	pickup, err := kernel.NewAddress("Adum, Kumasi", p)
	require.NoError(t, err)
	dropoff, err := kernel.NewAddress("KNUST campus", p)
	require.NoError(t, err)
	total, err := kernel.NewMoney(4500)
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), customerID, pickup, dropoff, total, time.Now())
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	customerID := kernel.NewUUID()
	o := newOrder(t, customerID)

	require.NoError(t, o.Validate())
	assert.Equal(t, order.Created, o.Status())
	assert.True(t, o.IsOwnedBy(customerID))
	assert.Nil(t, o.Rating())
	assert.Equal(t, int64(4500), o.Total().Minor())

	_, err := order.NewOrder(kernel.NewUUID(), kernel.UUID{}, o.Pickup(), o.Dropoff(), kernel.Money{}, time.Now())
	require.Error(t, err)
}

func TestMirrorOf(t *testing.T) {
	tests := []struct {
		shipment  shipment.Status
		cancelled bool
		want      order.Status
	}{
		{shipment.Unassigned, false, order.Created},
		{shipment.Assigned, false, order.Assigned},
		{shipment.PickedUp, false, order.PickedUp},
		{shipment.InTransit, false, order.InTransit},
		{shipment.Delivered, false, order.Delivered},
		{shipment.Failed, false, order.Failed},
		{shipment.Failed, true, order.Cancelled},
	}
	for _, tt := range tests {
		got, err := order.MirrorOf(tt.shipment, tt.cancelled)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s cancelled=%v", tt.shipment, tt.cancelled)
	}

	for _, s := range shipment.Statuses() {
		_, err := order.MirrorOf(s, false)
		require.NoError(t, err, "every shipment status has a mirror")
	}

	_, err := order.MirrorOf("lost", false)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestOrder_Rate(t *testing.T) {
	customerID := kernel.NewUUID()

	t.Run("owner rates a delivered order once", func(t *testing.T) {
		o := newOrder(t, customerID)
		require.NoError(t, o.SyncWith(shipment.Delivered, false))

		require.NoError(t, o.Rate(customerID, 4, " quick and polite "))
		require.NotNil(t, o.Rating())
		assert.Equal(t, 4, *o.Rating())
		assert.Equal(t, "quick and polite", o.Feedback())

		err := o.Rate(customerID, 5, "")
		require.ErrorIs(t, err, errs.ErrInvalidTransition)
		assert.ErrorIs(t, err.(*errs.InvalidTransitionError).Cause, order.ErrAlreadyRated)
		assert.Equal(t, 4, *o.Rating())
	})

	t.Run("rating out of range", func(t *testing.T) {
		o := newOrder(t, customerID)
		require.NoError(t, o.SyncWith(shipment.Delivered, false))

		require.ErrorIs(t, o.Rate(customerID, 0, ""), errs.ErrValueIsOutOfRange)
		require.ErrorIs(t, o.Rate(customerID, 6, ""), errs.ErrValueIsOutOfRange)
	})

	t.Run("another customer", func(t *testing.T) {
		o := newOrder(t, customerID)
		require.NoError(t, o.SyncWith(shipment.Delivered, false))

		require.ErrorIs(t, o.Rate(kernel.NewUUID(), 5, ""), errs.ErrNotAssignedToActor)
	})

	t.Run("not delivered", func(t *testing.T) {
		o := newOrder(t, customerID)
		require.NoError(t, o.SyncWith(shipment.InTransit, false))

		require.ErrorIs(t, o.Rate(customerID, 5, ""), errs.ErrInvalidTransition)
	})
}

func TestRestore_RejectsRatingOnUndeliveredOrder(t *testing.T) {
	o := newOrder(t, kernel.NewUUID())
	rating := 3

	_, err := order.Restore(order.State{
		ID: o.ID(), CustomerID: o.CustomerID(), Pickup: o.Pickup(), Dropoff: o.Dropoff(),
		Total: o.Total(), Status: order.Assigned, Rating: &rating, CreatedAt: o.CreatedAt(),
	})
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	restored, err := order.Restore(order.State{
		ID: o.ID(), CustomerID: o.CustomerID(), Pickup: o.Pickup(), Dropoff: o.Dropoff(),
		Total: o.Total(), Status: order.Delivered, Rating: &rating, CreatedAt: o.CreatedAt(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, *restored.Rating())
}
