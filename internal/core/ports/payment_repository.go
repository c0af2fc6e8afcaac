package ports

import (
	"context"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/payment"
)

type PaymentRepository interface {
	Add(ctx context.Context, aggregate *payment.Payment) error
	Update(ctx context.Context, aggregate *payment.Payment) error
	GetForUpdate(ctx context.Context, id kernel.UUID) (*payment.Payment, error)
	GetByShipmentIDForUpdate(ctx context.Context, shipmentID kernel.UUID) (*payment.Payment, error)
}
