// Package payment keeps the status bookkeeping of the payment attached to each shipment.
// Money never moves here; settlement happens elsewhere and is reported back.
package payment

import (
	"errors"
	"fmt"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

type Status string

const (
	Pending  Status = "pending"
	Paid     Status = "paid"
	Failed   Status = "failed"
	Refunded Status = "refunded"
)

type Method string

const (
	Cash Method = "cash"
	Card Method = "card"
	Momo Method = "momo"
)

type operation string

const (
	opSettle operation = "settle"
	opFail   operation = "fail"
	opRefund operation = "refund"
)

var transitions = map[Status]map[operation]Status{
	Pending:  {opSettle: Paid, opFail: Failed},
	Paid:     {opRefund: Refunded},
	Failed:   {},
	Refunded: {},
}

var ErrPaymentIsNotConstructed = errors.New("Payment must be created via NewPayment or Restore")

// ParseMethod accepts cash, card and momo.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	switch m {
	case Cash, Card, Momo:
		return m, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("payment method", fmt.Errorf("%q is not supported", s))
	}
}

// ParseStatus returns a validation error for anything outside the closed set.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

func (s Status) Validate() error {
	if _, ok := transitions[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("payment status", fmt.Errorf("%q is not a valid status", string(s)))
	}
	return nil
}

// Payment is created pending together with its shipment. It becomes paid only through
// an explicit settlement, never as a side effect of the delivery lifecycle.
type Payment struct {
	id         kernel.UUID
	shipmentID kernel.UUID
	method     Method
	status     Status
	paidAt     *time.Time
	createdAt  time.Time

	guard guard.ConstructorGuard
}

// NewPayment creates a pending payment for shipmentID.
func NewPayment(id, shipmentID kernel.UUID, method Method, createdAt time.Time) (*Payment, error) {
	if err := errors.Join(id.Validate(), shipmentID.Validate()); err != nil {
		return nil, err
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	return &Payment{
		id:         id,
		shipmentID: shipmentID,
		method:     method,
		status:     Pending,
		createdAt:  createdAt,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// State is the persisted form of a payment.
type State struct {
	ID         kernel.UUID
	ShipmentID kernel.UUID
	Method     Method
	Status     Status
	PaidAt     *time.Time
	CreatedAt  time.Time
}

// Restore rebuilds a payment from storage. Paid and refunded payments must carry paid_at.
func Restore(st State) (*Payment, error) {
	p, err := NewPayment(st.ID, st.ShipmentID, st.Method, st.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err = st.Status.Validate(); err != nil {
		return nil, err
	}
	if (st.Status == Paid || st.Status == Refunded) && st.PaidAt == nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("payment state", fmt.Errorf("%s payment has no paid_at", st.Status))
	}
	p.status = st.Status
	p.paidAt = st.PaidAt
	return p, nil
}

func (p *Payment) Validate() error {
	if p == nil {
		return ErrPaymentIsNotConstructed
	}
	return p.guard.Validate(ErrPaymentIsNotConstructed)
}

// Accessors.
func (p *Payment) ID() kernel.UUID         { return p.id }
func (p *Payment) ShipmentID() kernel.UUID { return p.shipmentID }
func (p *Payment) Method() Method          { return p.method }
func (p *Payment) Status() Status          { return p.status }
func (p *Payment) PaidAt() *time.Time      { return p.paidAt }
func (p *Payment) CreatedAt() time.Time    { return p.createdAt }

// Settle records a confirmed settlement.
func (p *Payment) Settle(now time.Time) error {
	if err := p.apply(opSettle); err != nil {
		return err
	}
	p.paidAt = &now
	return nil
}

// Fail marks a pending payment failed.
func (p *Payment) Fail() error {
	return p.apply(opFail)
}

// Refund reverses a paid payment.
func (p *Payment) Refund() error {
	return p.apply(opRefund)
}

// FailIfPending marks a pending payment failed after its shipment ended without delivery.
// A paid payment is left for an explicit refund. It reports whether anything changed.
func (p *Payment) FailIfPending() bool {
	if p.status != Pending {
		return false
	}
	p.status = Failed
	return true
}

func (p *Payment) apply(op operation) error {
	next, ok := transitions[p.status][op]
	if !ok {
		var allowed []string
		for _, s := range []Status{Pending, Paid, Failed, Refunded} {
			if _, legal := transitions[s][op]; legal {
				allowed = append(allowed, string(s))
			}
		}
		return errs.NewInvalidTransitionError("payment", p.id.String(), string(op), string(p.status), allowed)
	}
	p.status = next
	return nil
}
