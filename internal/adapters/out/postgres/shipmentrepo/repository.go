package shipmentrepo

import (
	"context"
	"errors"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/dberrs"
	"quickdrop/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormShipmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormShipmentRepository(db *gorm.DB, tracker aggregateTracker) *GormShipmentRepository {
	return &GormShipmentRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormShipmentRepository) Add(ctx context.Context, aggregate *shipment.Shipment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return dberrs.Classify("add shipment", err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes the lifecycle columns if the row is still at the version that was
// read and increments it in the row and in aggregate.
func (r *GormShipmentRepository) Update(ctx context.Context, aggregate *shipment.Shipment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&ShipmentDTO{}).
		Where("id = ? AND version = ?", dto.ID, dto.Version).
		Updates(map[string]any{
			"courier_id":     dto.CourierID,
			"status":         dto.Status,
			"failure_reason": dto.FailureReason,
			"assigned_at":    dto.AssignedAt,
			"picked_at":      dto.PickedAt,
			"delivered_at":   dto.DeliveredAt,
			"failed_at":      dto.FailedAt,
			"version":        gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return dberrs.Classify("update shipment", result.Error)
	}

	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&ShipmentDTO{}).Where("id = ?", dto.ID).Count(&exists).Error; err != nil {
			return dberrs.Classify("update shipment", err)
		}
		if exists == 0 {
			return errs.NewObjectNotFoundError("shipment", aggregate.ID().String())
		}
		return errs.NewStaleVersionError("shipment", aggregate.ID().String(), aggregate.Version())
	}

	aggregate.VersionStored()
	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormShipmentRepository) Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	return r.load(ctx, r.db, "load shipment", id.String(), "id = ?", id)
}

func (r *GormShipmentRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	return r.load(ctx, r.forUpdate(), "lock shipment", id.String(), "id = ?", id)
}

func (r *GormShipmentRepository) GetByOrderIDForUpdate(ctx context.Context, orderID kernel.UUID) (*shipment.Shipment, error) {
	return r.load(ctx, r.forUpdate(), "lock shipment", "order "+orderID.String(), "order_id = ?", orderID)
}

// GetOldestUnassignedForUpdate skips rows other workers hold so that parallel
// auto-assign runs pick different shipments. Ids in skip are passed over as well.
func (r *GormShipmentRepository) GetOldestUnassignedForUpdate(ctx context.Context, skip []kernel.UUID) (*shipment.Shipment, error) {
	tx := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", string(shipment.Unassigned))
	if len(skip) > 0 {
		ids := make([]uuid.UUID, 0, len(skip))
		for _, id := range skip {
			ids = append(ids, id.Bytes())
		}
		tx = tx.Where("id NOT IN ?", ids)
	}

	var dto ShipmentDTO
	err := tx.Order("created_at ASC, id ASC").Take(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("shipment", "oldest unassigned")
		}
		return nil, dberrs.Classify("lock oldest unassigned shipment", err)
	}

	return toDomain(dto)
}

func (r *GormShipmentRepository) CountActiveByCourier(ctx context.Context, courierID kernel.UUID) (int, error) {
	if err := courierID.Validate(); err != nil {
		return 0, err
	}

	active := shipment.ActiveStatuses()
	names := make([]string, 0, len(active))
	for _, s := range active {
		names = append(names, string(s))
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&ShipmentDTO{}).
		Where("courier_id = ? AND status IN ?", courierID.Bytes(), names).
		Count(&count).Error
	if err != nil {
		return 0, dberrs.Classify("count courier shipments", err)
	}
	return int(count), nil
}

func (r *GormShipmentRepository) forUpdate() *gorm.DB {
	return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *GormShipmentRepository) load(
	ctx context.Context,
	db *gorm.DB,
	operation, ref string,
	where string,
	id kernel.UUID,
) (*shipment.Shipment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ShipmentDTO
	if err := db.WithContext(ctx).Where(where, id.Bytes()).Take(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("shipment", ref)
		}
		return nil, dberrs.Classify(operation, err)
	}

	return toDomain(dto)
}
