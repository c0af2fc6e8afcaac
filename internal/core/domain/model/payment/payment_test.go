package payment_test

import (
	"testing"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayment(t *testing.T) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment(kernel.NewUUID(), kernel.NewUUID(), payment.Momo, time.Now())
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	p := newPayment(t)
	assert.Equal(t, payment.Pending, p.Status())
	assert.Nil(t, p.PaidAt())

	_, err := payment.NewPayment(kernel.NewUUID(), kernel.NewUUID(), "bitcoin", time.Now())
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestPayment_Transitions(t *testing.T) {
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	t.Run("settle then refund", func(t *testing.T) {
		p := newPayment(t)
		require.NoError(t, p.Settle(now))
		assert.Equal(t, payment.Paid, p.Status())
		assert.Equal(t, now, *p.PaidAt())

		require.NoError(t, p.Refund())
		assert.Equal(t, payment.Refunded, p.Status())
		assert.Equal(t, now, *p.PaidAt())
	})

	t.Run("refund of pending is rejected", func(t *testing.T) {
		p := newPayment(t)
		err := p.Refund()

		var transitionErr *errs.InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, []string{"paid"}, transitionErr.AllowedFrom)
		assert.Equal(t, payment.Pending, p.Status())
	})

	t.Run("failed is terminal", func(t *testing.T) {
		p := newPayment(t)
		require.NoError(t, p.Fail())
		require.ErrorIs(t, p.Settle(now), errs.ErrInvalidTransition)
		require.ErrorIs(t, p.Fail(), errs.ErrInvalidTransition)
	})

	t.Run("fail if pending leaves paid payments alone", func(t *testing.T) {
		pending := newPayment(t)
		assert.True(t, pending.FailIfPending())
		assert.Equal(t, payment.Failed, pending.Status())

		paid := newPayment(t)
		require.NoError(t, paid.Settle(now))
		assert.False(t, paid.FailIfPending())
		assert.Equal(t, payment.Paid, paid.Status())
	})
}

func TestRestore(t *testing.T) {
	_, err := payment.Restore(payment.State{
		ID: kernel.NewUUID(), ShipmentID: kernel.NewUUID(), Method: payment.Cash, Status: payment.Paid,
	})
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}
