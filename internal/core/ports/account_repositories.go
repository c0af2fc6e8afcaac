package ports

import (
	"context"

	"quickdrop/internal/core/domain/model/customer"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/user"
)

// UserRepository stores accounts. A duplicate username, email or phone is reported
// as a validation error naming the field.
type UserRepository interface {
	Add(ctx context.Context, aggregate *user.User) error
	Get(ctx context.Context, id kernel.UUID) (*user.User, error)
}

type CustomerRepository interface {
	Add(ctx context.Context, aggregate *customer.Customer) error
	Get(ctx context.Context, id kernel.UUID) (*customer.Customer, error)
}
