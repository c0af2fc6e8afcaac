package commands_test

import (
	"testing"

	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/services"
	"quickdrop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestShipmentTransitionCommandHandler_DeliveryRoundTrip(t *testing.T) {
	courierID := kernel.NewUUID()
	d := assignedDelivery(t, courierID)
	lifecycle := services.NewShipmentLifecycle(maxActive)

	steps := []struct {
		build  func(kernel.UUID, kernel.UUID) (commands.ShipmentTransitionCommand, error)
		status shipment.Status
		mirror order.Status
	}{
		{commands.NewConfirmPickupCommand, shipment.PickedUp, order.PickedUp},
		{commands.NewStartDeliveryCommand, shipment.InTransit, order.InTransit},
		{commands.NewCompleteDeliveryCommand, shipment.Delivered, order.Delivered},
	}

	for _, step := range steps {
		ctx := t.Context()
		uow := newMockUoW()
		uow.expectTx(ctx, true)
		uow.shipments.On("GetForUpdate", mock.Anything, d.shipment.ID()).Return(d.shipment, nil).Once()
		uow.orders.On("GetForUpdate", mock.Anything, d.order.ID()).Return(d.order, nil).Once()
		uow.shipments.On("Update", mock.Anything, d.shipment).Return(nil).Once()
		uow.orders.On("Update", mock.Anything, d.order).Return(nil).Once()

		cmd, err := step.build(d.shipment.ID(), courierID)
		require.NoError(t, err)
		h := commands.NewShipmentTransitionCommandHandler(factory{uow}, lifecycle)
		s, err := h.Handle(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, step.status, s.Status())
		assert.Equal(t, step.mirror, d.order.Status())
		uow.assertAll(t)
	}
}

func TestShipmentTransitionCommandHandler_ForeignCourierWritesNothing(t *testing.T) {
	ctx := t.Context()
	d := assignedDelivery(t, kernel.NewUUID())

	uow := newMockUoW()
	uow.expectTx(ctx, false)
	uow.shipments.On("GetForUpdate", mock.Anything, d.shipment.ID()).Return(d.shipment, nil).Once()
	uow.orders.On("GetForUpdate", mock.Anything, d.order.ID()).Return(d.order, nil).Once()

	cmd, err := commands.NewConfirmPickupCommand(d.shipment.ID(), kernel.NewUUID())
	require.NoError(t, err)
	h := commands.NewShipmentTransitionCommandHandler(factory{uow}, services.NewShipmentLifecycle(maxActive))
	_, err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrNotAssignedToActor)
	assert.Equal(t, shipment.Assigned, d.shipment.Status())
	uow.assertAll(t)
}

func TestShipmentTransitionCommandHandler_StaleVersionIsInvalidTransition(t *testing.T) {
	ctx := t.Context()
	courierID := kernel.NewUUID()
	d := assignedDelivery(t, courierID)

	uow := newMockUoW()
	uow.expectTx(ctx, false)
	uow.shipments.On("GetForUpdate", mock.Anything, d.shipment.ID()).Return(d.shipment, nil).Once()
	uow.orders.On("GetForUpdate", mock.Anything, d.order.ID()).Return(d.order, nil).Once()
	uow.shipments.On("Update", mock.Anything, d.shipment).
		Return(errs.NewStaleVersionError("shipment", d.shipment.ID().String(), d.shipment.Version())).Once()

	cmd, err := commands.NewConfirmPickupCommand(d.shipment.ID(), courierID)
	require.NoError(t, err)
	h := commands.NewShipmentTransitionCommandHandler(factory{uow}, services.NewShipmentLifecycle(maxActive))
	_, err = h.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	uow.assertAll(t)
}

func TestFailShipmentCommandHandler(t *testing.T) {
	ctx := t.Context()
	courierID := kernel.NewUUID()
	d := assignedDelivery(t, courierID)

	uow := newMockUoW()
	uow.expectTx(ctx, true)
	uow.shipments.On("GetForUpdate", mock.Anything, d.shipment.ID()).Return(d.shipment, nil).Once()
	uow.orders.On("GetForUpdate", mock.Anything, d.order.ID()).Return(d.order, nil).Once()
	uow.payments.On("GetByShipmentIDForUpdate", mock.Anything, d.shipment.ID()).Return(d.payment, nil).Once()
	uow.shipments.On("Update", mock.Anything, d.shipment).Return(nil).Once()
	uow.orders.On("Update", mock.Anything, d.order).Return(nil).Once()
	uow.payments.On("Update", mock.Anything, d.payment).Return(nil).Once()

	cmd, err := commands.NewFailShipmentCommand(d.shipment.ID(), &courierID, "recipient unreachable")
	require.NoError(t, err)
	h := commands.NewFailShipmentCommandHandler(factory{uow}, services.NewShipmentLifecycle(maxActive))
	s, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, shipment.Failed, s.Status())
	assert.Equal(t, "recipient unreachable", s.FailureReason())
	assert.Equal(t, order.Failed, d.order.Status())
	assert.Equal(t, payment.Failed, d.payment.Status())
	uow.assertAll(t)
}

func TestNewFailShipmentCommand_ReasonRequired(t *testing.T) {
	_, err := commands.NewFailShipmentCommand(kernel.NewUUID(), nil, "")
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestCancelOrderCommandHandler(t *testing.T) {
	t.Run("owner cancels", func(t *testing.T) {
		ctx := t.Context()
		customerID := kernel.NewUUID()
		d := newDelivery(t, customerID)

		uow := newMockUoW()
		uow.expectTx(ctx, true)
		uow.shipments.On("GetByOrderIDForUpdate", mock.Anything, d.order.ID()).Return(d.shipment, nil).Once()
		uow.orders.On("GetForUpdate", mock.Anything, d.order.ID()).Return(d.order, nil).Once()
		uow.payments.On("GetByShipmentIDForUpdate", mock.Anything, d.shipment.ID()).Return(d.payment, nil).Once()
		uow.shipments.On("Update", mock.Anything, d.shipment).Return(nil).Once()
		uow.orders.On("Update", mock.Anything, d.order).Return(nil).Once()
		uow.payments.On("Update", mock.Anything, d.payment).Return(nil).Once()

		cmd, err := commands.NewCancelOrderCommand(d.order.ID(), &customerID, "")
		require.NoError(t, err)
		h := commands.NewCancelOrderCommandHandler(factory{uow}, services.NewShipmentLifecycle(maxActive))
		o, err := h.Handle(ctx, cmd)
		require.NoError(t, err)

		assert.Equal(t, order.Cancelled, o.Status())
		assert.Equal(t, shipment.Failed, d.shipment.Status())
		assert.Equal(t, payment.Failed, d.payment.Status())
		uow.assertAll(t)
	})

	t.Run("other customer", func(t *testing.T) {
		ctx := t.Context()
		d := newDelivery(t, kernel.NewUUID())
		stranger := kernel.NewUUID()

		uow := newMockUoW()
		uow.expectTx(ctx, false)
		uow.shipments.On("GetByOrderIDForUpdate", mock.Anything, d.order.ID()).Return(d.shipment, nil).Once()
		uow.orders.On("GetForUpdate", mock.Anything, d.order.ID()).Return(d.order, nil).Once()
		uow.payments.On("GetByShipmentIDForUpdate", mock.Anything, d.shipment.ID()).Return(d.payment, nil).Once()

		cmd, err := commands.NewCancelOrderCommand(d.order.ID(), &stranger, "changed my mind")
		require.NoError(t, err)
		h := commands.NewCancelOrderCommandHandler(factory{uow}, services.NewShipmentLifecycle(maxActive))
		_, err = h.Handle(ctx, cmd)
		require.ErrorIs(t, err, errs.ErrNotAssignedToActor)
		assert.Equal(t, order.Created, d.order.Status())
		uow.assertAll(t)
	})
}
