package shipment_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func address(t *testing.T, line string) kernel.Address {
	t.Helper()
	p, err := kernel.NewGeoPoint(5.6, -0.2)
	require.NoError(t, err)
	a, err := kernel.NewAddress(line, p)
	require.NoError(t, err)
	return a
}

func newShipment(t *testing.T) *shipment.Shipment {
	t.Helper()
	s, err := shipment.NewShipment(kernel.NewUUID(), kernel.NewUUID(), address(t, "Pickup 1"), address(t, "Drop 2"), t0)
	require.NoError(t, err)
	return s
}

// driveTo moves a fresh shipment to target through the happy path with courier c.
func driveTo(t *testing.T, target shipment.Status, c kernel.UUID) *shipment.Shipment {
	t.Helper()
	s := newShipment(t)
	steps := map[shipment.Status]func() error{
		shipment.Assigned:  func() error { return s.Assign(c, t0.Add(time.Minute)) },
		shipment.PickedUp:  func() error { return s.ConfirmPickup(c, t0.Add(2*time.Minute)) },
		shipment.InTransit: func() error { return s.StartDelivery(c, t0.Add(3*time.Minute)) },
		shipment.Delivered: func() error { return s.CompleteDelivery(c, t0.Add(4*time.Minute)) },
	}
	stop := target
	if target == shipment.Failed {
		stop = shipment.Assigned
	}
	for _, st := range []shipment.Status{shipment.Assigned, shipment.PickedUp, shipment.InTransit, shipment.Delivered} {
		if s.Status() == stop {
			break
		}
		require.NoError(t, steps[st]())
	}
	if target == shipment.Failed {
		require.NoError(t, s.Fail(nil, "address not found", t0.Add(5*time.Minute)))
	}
	require.Equal(t, target, s.Status())
	s.ClearDomainEvents()
	return s
}

func TestNewShipment(t *testing.T) {
	s := newShipment(t)

	require.NoError(t, s.Validate())
	assert.Equal(t, shipment.Unassigned, s.Status())
	assert.Nil(t, s.CourierID())
	assert.Nil(t, s.AssignedAt())
	assert.Equal(t, t0, s.CreatedAt())

	_, err := shipment.NewShipment(kernel.UUID{}, kernel.NewUUID(), address(t, "a"), kernel.Address{}, t0)
	require.Error(t, err)
	assert.True(t, errs.IsValidationFailed(err))

	var zero *shipment.Shipment
	assert.Equal(t, shipment.ErrShipmentIsNotConstructed, zero.Validate())
}

func TestShipment_HappyPathRoundTrip(t *testing.T) {
	courierID := kernel.NewUUID()
	s := newShipment(t)

	require.NoError(t, s.Assign(courierID, t0.Add(time.Minute)))
	require.NoError(t, s.ConfirmPickup(courierID, t0.Add(2*time.Minute)))
	require.NoError(t, s.StartDelivery(courierID, t0.Add(3*time.Minute)))
	require.NoError(t, s.CompleteDelivery(courierID, t0.Add(4*time.Minute)))

	assert.Equal(t, shipment.Delivered, s.Status())
	assert.True(t, s.IsAssignedTo(courierID))
	require.NotNil(t, s.PickedAt())
	require.NotNil(t, s.DeliveredAt())
	assert.True(t, s.PickedAt().Before(*s.DeliveredAt()))

	var names []string
	for _, e := range s.DomainEvents() {
		names = append(names, e.Name())
		assert.Equal(t, courierID.String(), e.Payload()["courier_id"])
	}
	assert.Equal(t, []string{
		shipment.EventAssigned, shipment.EventPickedUp, shipment.EventInTransit, shipment.EventDelivered,
	}, names)
}

func TestShipment_CompleteDirectlyFromPickedUp(t *testing.T) {
	c := kernel.NewUUID()
	s := driveTo(t, shipment.PickedUp, c)

	require.NoError(t, s.CompleteDelivery(c, t0.Add(time.Hour)))
	assert.Equal(t, shipment.Delivered, s.Status())
}

func TestShipment_ConfirmPickupRejectedOutsideAssigned(t *testing.T) {
	c := kernel.NewUUID()
	for _, from := range []shipment.Status{
		shipment.Unassigned, shipment.PickedUp, shipment.InTransit, shipment.Delivered, shipment.Failed,
	} {
		t.Run(string(from), func(t *testing.T) {
			s := driveTo(t, from, c)
			pickedAt := s.PickedAt()

			err := s.ConfirmPickup(c, t0.Add(time.Hour))

			var transitionErr *errs.InvalidTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, string(from), transitionErr.Current)
			assert.Equal(t, []string{"assigned"}, transitionErr.AllowedFrom)
			assert.Equal(t, from, s.Status())
			assert.Equal(t, pickedAt, s.PickedAt())
			assert.Empty(t, s.DomainEvents())
		})
	}
}

func TestShipment_CompleteFromAssignedIsNotAutoCorrected(t *testing.T) {
	c := kernel.NewUUID()
	s := driveTo(t, shipment.Assigned, c)

	err := s.CompleteDelivery(c, t0.Add(time.Hour))

	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "current status is assigned")
	assert.Nil(t, s.DeliveredAt())
	assert.Nil(t, s.PickedAt())
}

func TestShipment_ForeignCourierLearnsNothing(t *testing.T) {
	c1, c2 := kernel.NewUUID(), kernel.NewUUID()
	for _, from := range []shipment.Status{shipment.Assigned, shipment.Delivered} {
		s := driveTo(t, from, c1)

		err := s.ConfirmPickup(c2, t0.Add(time.Hour))

		require.ErrorIs(t, err, errs.ErrNotAssignedToActor)
		assert.Equal(t, from, s.Status())
	}
}

func TestShipment_AssignIsNotRepeatable(t *testing.T) {
	c1, c2 := kernel.NewUUID(), kernel.NewUUID()
	s := driveTo(t, shipment.Assigned, c1)
	assignedAt := s.AssignedAt()

	err := s.Assign(c2, t0.Add(time.Hour))

	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.True(t, s.IsAssignedTo(c1))
	assert.Equal(t, assignedAt, s.AssignedAt())
}

func TestShipment_Fail(t *testing.T) {
	c := kernel.NewUUID()

	t.Run("dispatcher fails any non-terminal shipment", func(t *testing.T) {
		for _, from := range []shipment.Status{shipment.Unassigned, shipment.Assigned, shipment.PickedUp, shipment.InTransit} {
			s := driveTo(t, from, c)
			require.NoError(t, s.Fail(nil, "  parcel damaged  ", t0.Add(time.Hour)))
			assert.Equal(t, shipment.Failed, s.Status())
			assert.Equal(t, "parcel damaged", s.FailureReason())
			require.NotNil(t, s.FailedAt())
			assert.Equal(t, shipment.EventFailed, s.DomainEvents()[0].Name())
		}
	})

	t.Run("courier may only fail their own shipment", func(t *testing.T) {
		s := driveTo(t, shipment.InTransit, c)
		other := kernel.NewUUID()

		require.ErrorIs(t, s.Fail(&other, "nope", t0), errs.ErrNotAssignedToActor)
		require.NoError(t, s.Fail(&c, "customer absent", t0))
	})

	t.Run("terminal shipments cannot fail", func(t *testing.T) {
		s := driveTo(t, shipment.Delivered, c)
		require.ErrorIs(t, s.Fail(nil, "late", t0), errs.ErrInvalidTransition)
		assert.Nil(t, s.FailedAt())
	})

	t.Run("reason is validated", func(t *testing.T) {
		s := newShipment(t)
		require.ErrorIs(t, s.Fail(nil, " ", t0), errs.ErrValueIsRequired)
		require.ErrorIs(t, s.Fail(nil, strings.Repeat("x", 501), t0), errs.ErrValueIsOutOfRange)
		assert.Equal(t, shipment.Unassigned, s.Status())
	})
}

func TestShipment_Cancel(t *testing.T) {
	c := kernel.NewUUID()

	s := driveTo(t, shipment.Assigned, c)
	require.NoError(t, s.Cancel("", t0.Add(time.Hour)))
	assert.Equal(t, shipment.Failed, s.Status())
	assert.Equal(t, "cancelled", s.FailureReason())
	assert.Equal(t, shipment.EventCancelled, s.DomainEvents()[0].Name())

	picked := driveTo(t, shipment.PickedUp, c)
	require.ErrorIs(t, picked.Cancel("changed my mind", t0), errs.ErrInvalidTransition)
}

func TestShipment_VersionStored(t *testing.T) {
	s := newShipment(t)
	require.Zero(t, s.Version())

	require.NoError(t, s.Assign(kernel.NewUUID(), t0))
	assert.Zero(t, s.Version(), "transitions leave the token to storage")

	s.VersionStored()
	s.VersionStored()
	assert.EqualValues(t, 2, s.Version())
}

func TestRestore(t *testing.T) {
	c := kernel.NewUUID()
	at := t0.Add(time.Minute)
	base := shipment.State{
		ID:          kernel.NewUUID(),
		OrderID:     kernel.NewUUID(),
		Pickup:      address(t, "p"),
		Destination: address(t, "d"),
		CreatedAt:   t0,
	}

	tests := []struct {
		name    string
		mutate  func(*shipment.State)
		wantErr bool
	}{
		{"unassigned", func(st *shipment.State) { st.Status = shipment.Unassigned }, false},
		{"assigned", func(st *shipment.State) { st.Status = shipment.Assigned; st.CourierID = &c; st.AssignedAt = &at }, false},
		{"failed before assignment", func(st *shipment.State) { st.Status = shipment.Failed; st.FailedAt = &at }, false},
		{"unassigned with courier", func(st *shipment.State) {
			st.Status = shipment.Unassigned
			st.CourierID = &c
			st.AssignedAt = &at
		}, true},
		{"in transit without courier", func(st *shipment.State) { st.Status = shipment.InTransit; st.PickedAt = &at }, true},
		{"delivered without delivered_at", func(st *shipment.State) {
			st.Status = shipment.Delivered
			st.CourierID = &c
			st.AssignedAt = &at
			st.PickedAt = &at
		}, true},
		{"unknown status", func(st *shipment.State) { st.Status = "lost" }, true},
		{"negative version", func(st *shipment.State) { st.Status = shipment.Unassigned; st.Version = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := base
			tt.mutate(&st)

			s, err := shipment.Restore(st)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsValidationFailed(err) || errors.Is(err, errs.ErrValueIsInvalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, st.Status, s.Status())
			assert.Empty(t, s.DomainEvents())
		})
	}
}
