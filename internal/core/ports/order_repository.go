package ports

import (
	"context"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
)

type OrderRepository interface {
	Add(ctx context.Context, aggregate *order.Order) error
	Update(ctx context.Context, aggregate *order.Order) error
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)
}
