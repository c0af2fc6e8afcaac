package courierrepo

import (
	"context"
	"errors"
	"time"

	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/pkg/dberrs"
	"quickdrop/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeShipmentStatuses must match shipment.ActiveStatuses.
var activeShipmentStatuses = []string{"assigned", "picked_up", "in_transit"}

type GormCourierRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormCourierRepository(db *gorm.DB, tracker aggregateTracker) *GormCourierRepository {
	return &GormCourierRepository{
		db:      db,
		tracker: tracker,
	}
}

func (r *GormCourierRepository) Add(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return dberrs.Classify("add courier", err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	return r.load(ctx, r.db, id)
}

func (r *GormCourierRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	return r.load(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormCourierRepository) UpdateStatus(ctx context.Context, aggregate *courier.Courier) error {
	return r.updateColumns(ctx, aggregate, "update courier status", func(dto CourierDTO) map[string]any {
		return map[string]any{"status": dto.Status}
	})
}

func (r *GormCourierRepository) UpdatePresence(ctx context.Context, aggregate *courier.Courier) error {
	return r.updateColumns(ctx, aggregate, "update courier presence", func(dto CourierDTO) map[string]any {
		return map[string]any{
			"online":           dto.Online,
			"last_seen":        dto.LastSeen,
			"location_lat":     dto.LocationLat,
			"location_lng":     dto.LocationLng,
			"location_address": dto.LocationAddress,
		}
	})
}

func (r *GormCourierRepository) UpdateVerification(ctx context.Context, aggregate *courier.Courier) error {
	return r.updateColumns(ctx, aggregate, "update courier verification", func(dto CourierDTO) map[string]any {
		return map[string]any{"verified": dto.Verified}
	})
}

func (r *GormCourierRepository) UpdateRating(ctx context.Context, aggregate *courier.Courier) error {
	return r.updateColumns(ctx, aggregate, "update courier rating", func(dto CourierDTO) map[string]any {
		return map[string]any{"rating": dto.Rating, "rated_deliveries": dto.RatedDeliveries}
	})
}

// ListAssignable reads without locks; callers lock and re-check the courier they pick.
func (r *GormCourierRepository) ListAssignable(ctx context.Context, maxActive int) ([]courier.Candidate, error) {
	var rows []struct {
		CourierDTO      `gorm:"embedded"`
		ActiveShipments int
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.*, COUNT(s.id) AS active_shipments
		FROM couriers c
		LEFT JOIN shipments s ON s.courier_id = c.id AND s.status IN ?
		WHERE c.status = ? AND c.online AND c.verified
		GROUP BY c.id
		HAVING ? <= 0 OR COUNT(s.id) < ?
	`, activeShipmentStatuses, string(courier.Active), maxActive, maxActive).Scan(&rows).Error
	if err != nil {
		return nil, dberrs.Classify("list assignable couriers", err)
	}

	candidates := make([]courier.Candidate, 0, len(rows))
	for _, row := range rows {
		c, err := toDomain(row.CourierDTO)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, courier.Candidate{Courier: c, ActiveShipments: row.ActiveShipments})
	}
	return candidates, nil
}

// MarkStaleOffline only touches the online flag, leaving last_seen as evidence.
func (r *GormCourierRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&CourierDTO{}).
		Where("online AND (last_seen IS NULL OR last_seen < ?)", cutoff).
		Update("online", false)
	if result.Error != nil {
		return 0, dberrs.Classify("mark stale couriers offline", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormCourierRepository) updateColumns(
	ctx context.Context,
	aggregate *courier.Courier,
	operation string,
	columns func(CourierDTO) map[string]any,
) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&CourierDTO{}).Where("id = ?", dto.ID).Updates(columns(dto))
	if result.Error != nil {
		return dberrs.Classify(operation, result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("courier", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormCourierRepository) load(ctx context.Context, db *gorm.DB, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto CourierDTO
	if err := db.WithContext(ctx).Where("id = ?", id.Bytes()).Take(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("courier", id.String())
		}
		return nil, dberrs.Classify("load courier", err)
	}

	return toDomain(dto)
}
