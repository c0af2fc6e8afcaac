package ports

import (
	"context"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
)

// ShipmentRepository persists shipment aggregates.
type ShipmentRepository interface {
	Add(ctx context.Context, aggregate *shipment.Shipment) error

	// Update writes the shipment only if the stored version still equals aggregate.Version(),
	// and bumps it in storage and in aggregate. A mismatch is reported as errs.StaleVersionError.
	Update(ctx context.Context, aggregate *shipment.Shipment) error

	Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error)

	// GetForUpdate loads and row-locks the shipment. Concurrent lifecycle operations on
	// the same shipment are serialized here.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error)

	GetByOrderIDForUpdate(ctx context.Context, orderID kernel.UUID) (*shipment.Shipment, error)

	// GetOldestUnassignedForUpdate locks the oldest unassigned shipment, passing over
	// rows locked by other transactions and the ids in skip. Returns
	// errs.ObjectNotFoundError when none is free.
	GetOldestUnassignedForUpdate(ctx context.Context, skip []kernel.UUID) (*shipment.Shipment, error)

	// CountActiveByCourier counts the courier's assigned, picked up and in transit shipments.
	CountActiveByCourier(ctx context.Context, courierID kernel.UUID) (int, error)
}
