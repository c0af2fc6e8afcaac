// Package customer holds the customer role record of a user.
package customer

import (
	"errors"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/guard"
)

var ErrCustomerIsNotConstructed = errors.New("Customer must be created via NewCustomer")

type Customer struct {
	id        kernel.UUID
	userID    kernel.UUID
	createdAt time.Time

	guard guard.ConstructorGuard
}

// NewCustomer creates the customer profile of userID.
func NewCustomer(id, userID kernel.UUID, createdAt time.Time) (*Customer, error) {
	if err := errors.Join(id.Validate(), userID.Validate()); err != nil {
		return nil, err
	}
	return &Customer{id: id, userID: userID, createdAt: createdAt, guard: guard.NewConstructorGuard()}, nil
}

func (c *Customer) Validate() error {
	if c == nil {
		return ErrCustomerIsNotConstructed
	}
	return c.guard.Validate(ErrCustomerIsNotConstructed)
}

func (c *Customer) ID() kernel.UUID      { return c.id }
func (c *Customer) UserID() kernel.UUID  { return c.userID }
func (c *Customer) CreatedAt() time.Time { return c.createdAt }
