package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"
)

const (
	MinRating         = 1
	MaxRating         = 5
	maxFeedbackLength = 1000
)

var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or Restore")

// ErrAlreadyRated is the cause attached when a delivered order is rated a second time.
var ErrAlreadyRated = errors.New("order has already been rated")

// Order is a customer's delivery request. Its status is never set directly: it is
// derived from the shipment with SyncWith inside the same transaction that moved the
// shipment, so both change together or not at all.
type Order struct {
	id         kernel.UUID
	customerID kernel.UUID
	pickup     kernel.Address
	dropoff    kernel.Address
	total      kernel.Money
	status     Status
	rating     *int
	feedback   string
	createdAt  time.Time

	guard guard.ConstructorGuard
}

// NewOrder creates an order in created status.
func NewOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	pickup kernel.Address,
	dropoff kernel.Address,
	total kernel.Money,
	createdAt time.Time,
) (*Order, error) {
	if err := errors.Join(
		id.Validate(),
		customerID.Validate(),
		pickup.Validate(),
		dropoff.Validate(),
		total.Validate(),
	); err != nil {
		return nil, err
	}

	return &Order{
		id:         id,
		customerID: customerID,
		pickup:     pickup,
		dropoff:    dropoff,
		total:      total,
		status:     Created,
		createdAt:  createdAt,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// State is the persisted form of an order.
type State struct {
	ID         kernel.UUID
	CustomerID kernel.UUID
	Pickup     kernel.Address
	Dropoff    kernel.Address
	Total      kernel.Money
	Status     Status
	Rating     *int
	Feedback   string
	CreatedAt  time.Time
}

// Restore rebuilds an order from storage.
func Restore(st State) (*Order, error) {
	if err := errors.Join(
		st.ID.Validate(),
		st.CustomerID.Validate(),
		st.Pickup.Validate(),
		st.Dropoff.Validate(),
		st.Total.Validate(),
		st.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if st.Rating != nil {
		if err := validateRating(*st.Rating); err != nil {
			return nil, err
		}
		if st.Status != Delivered {
			return nil, errs.NewValueIsInvalidErrorWithCause(
				"order state", fmt.Errorf("%s order carries a rating", st.Status))
		}
	}

	return &Order{
		id:         st.ID,
		customerID: st.CustomerID,
		pickup:     st.Pickup,
		dropoff:    st.Dropoff,
		total:      st.Total,
		status:     st.Status,
		rating:     st.Rating,
		feedback:   st.Feedback,
		createdAt:  st.CreatedAt,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

func (o *Order) ID() kernel.UUID         { return o.id }
func (o *Order) CustomerID() kernel.UUID { return o.customerID }
func (o *Order) Pickup() kernel.Address  { return o.pickup }
func (o *Order) Dropoff() kernel.Address { return o.dropoff }
func (o *Order) Total() kernel.Money     { return o.total }
func (o *Order) Status() Status          { return o.status }
func (o *Order) Feedback() string        { return o.feedback }
func (o *Order) CreatedAt() time.Time    { return o.createdAt }

// Rating returns the customer's rating, or nil when the order was not rated.
func (o *Order) Rating() *int {
	if o.rating == nil {
		return nil
	}
	r := *o.rating
	return &r
}

// IsOwnedBy reports whether customerID placed the order.
func (o *Order) IsOwnedBy(customerID kernel.UUID) bool {
	return o.customerID.IsEqual(customerID)
}

// SyncWith sets the status mirrored from the shipment's current status.
func (o *Order) SyncWith(s shipment.Status, cancelled bool) error {
	status, err := MirrorOf(s, cancelled)
	if err != nil {
		return err
	}
	o.status = status
	return nil
}

// Rate records the owning customer's 1..5 rating of a delivered order. An order is rated once.
func (o *Order) Rate(actorCustomerID kernel.UUID, rating int, feedback string) error {
	if err := validateRating(rating); err != nil {
		return err
	}
	feedback = strings.TrimSpace(feedback)
	if len(feedback) > maxFeedbackLength {
		return errs.NewValueIsOutOfRangeError("feedback length", len(feedback), 0, maxFeedbackLength)
	}
	if !o.IsOwnedBy(actorCustomerID) {
		return errs.NewNotAssignedToActorError("order", o.id.String(), actorCustomerID.String())
	}
	if o.status != Delivered {
		return errs.NewInvalidTransitionError("order", o.id.String(), "rate", string(o.status), []string{string(Delivered)})
	}
	if o.rating != nil {
		return errs.NewInvalidTransitionErrorWithCause(
			"order", o.id.String(), "rate", string(o.status), nil, ErrAlreadyRated)
	}

	o.rating = &rating
	o.feedback = feedback
	return nil
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return errs.NewValueIsOutOfRangeError("rating", rating, MinRating, MaxRating)
	}
	return nil
}
