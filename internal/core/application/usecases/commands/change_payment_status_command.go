package commands

import (
	"context"
	"errors"
	"fmt"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/pkg/guard"
)

var ErrChangePaymentStatusCommandIsNotConstructed = errors.New(
	"ChangePaymentStatusCommand must be created via NewSettlePaymentCommand, " +
		"NewFailPaymentCommand or NewRefundPaymentCommand",
)

type paymentAction string

const (
	actionSettle paymentAction = "settle"
	actionFail   paymentAction = "fail"
	actionRefund paymentAction = "refund"
)

// ChangePaymentStatusCommand records a settlement, failure or refund reported by
// the payment collector. Payments never drive the shipment lifecycle.
type ChangePaymentStatusCommand struct { //nolint:recvcheck //using for validation
	paymentID kernel.UUID
	action    paymentAction

	guard guard.ConstructorGuard
}

// NewSettlePaymentCommand moves a pending payment to paid.
func NewSettlePaymentCommand(paymentID kernel.UUID) (ChangePaymentStatusCommand, error) {
	return newChangePaymentStatusCommand(paymentID, actionSettle)
}

func NewFailPaymentCommand(paymentID kernel.UUID) (ChangePaymentStatusCommand, error) {
	return newChangePaymentStatusCommand(paymentID, actionFail)
}

func NewRefundPaymentCommand(paymentID kernel.UUID) (ChangePaymentStatusCommand, error) {
	return newChangePaymentStatusCommand(paymentID, actionRefund)
}

func newChangePaymentStatusCommand(paymentID kernel.UUID, action paymentAction) (ChangePaymentStatusCommand, error) {
	if err := paymentID.Validate(); err != nil {
		return ChangePaymentStatusCommand{}, err
	}
	return ChangePaymentStatusCommand{
		paymentID: paymentID,
		action:    action,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ChangePaymentStatusCommand) Validate() error {
	return c.guard.Validate(ErrChangePaymentStatusCommandIsNotConstructed)
}

func (c ChangePaymentStatusCommand) PaymentID() kernel.UUID { return c.paymentID }

type ChangePaymentStatusCommandHandler struct {
	uowFactory UoWFactory
}

// NewChangePaymentStatusCommandHandler creates a handler for settle, fail and refund.
func NewChangePaymentStatusCommandHandler(uowFactory UoWFactory) ChangePaymentStatusCommandHandler {
	return ChangePaymentStatusCommandHandler{uowFactory: uowFactory}
}

// Handle locks the payment and applies the requested change.
func (h ChangePaymentStatusCommandHandler) Handle(
	ctx context.Context,
	cmd ChangePaymentStatusCommand,
) (*payment.Payment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.PaymentRepository()
	p, err := repo.GetForUpdate(ctx, cmd.PaymentID())
	if err != nil {
		return nil, err
	}

	switch cmd.action {
	case actionSettle:
		err = p.Settle(now())
	case actionFail:
		err = p.Fail()
	case actionRefund:
		err = p.Refund()
	default:
		err = fmt.Errorf("unsupported payment action %q", cmd.action)
	}
	if err != nil {
		return nil, err
	}

	if err = repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
