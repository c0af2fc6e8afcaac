package ports

import (
	"context"
	"time"

	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"
)

// CourierRepository persists couriers. Writes are column scoped: status, presence,
// verification and rating are updated independently so that a heartbeat never
// overwrites a concurrent status change and vice versa.
type CourierRepository interface {
	Add(ctx context.Context, aggregate *courier.Courier) error
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)
	GetForUpdate(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	UpdateStatus(ctx context.Context, aggregate *courier.Courier) error
	UpdatePresence(ctx context.Context, aggregate *courier.Courier) error
	UpdateVerification(ctx context.Context, aggregate *courier.Courier) error
	UpdateRating(ctx context.Context, aggregate *courier.Courier) error

	// ListAssignable returns active, online, verified couriers with fewer than maxActive
	// non-terminal shipments (unlimited when maxActive <= 0), unlocked and unordered.
	ListAssignable(ctx context.Context, maxActive int) ([]courier.Candidate, error)

	// MarkStaleOffline sets online=false for couriers whose last heartbeat is before
	// cutoff and returns how many were changed.
	MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}
