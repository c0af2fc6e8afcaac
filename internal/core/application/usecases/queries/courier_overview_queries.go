package queries

import (
	"context"
	"errors"
	"time"

	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/dberrs"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGetCourierStatisticsQueryIsNotConstructed = errors.New(
		"GetCourierStatisticsQuery must be created via NewGetCourierStatisticsQuery constructor",
	)
	ErrListAvailableCouriersQueryIsNotConstructed = errors.New(
		"ListAvailableCouriersQuery must be created via NewListAvailableCouriersQuery constructor",
	)
)

type GetCourierStatisticsQuery struct {
	courierID kernel.UUID
	guard     guard.ConstructorGuard
}

// NewGetCourierStatisticsQuery reads counters for a single courier.
func NewGetCourierStatisticsQuery(courierID kernel.UUID) (GetCourierStatisticsQuery, error) {
	if err := courierID.Validate(); err != nil {
		return GetCourierStatisticsQuery{}, err
	}
	return GetCourierStatisticsQuery{courierID: courierID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetCourierStatisticsQuery) Validate() error {
	return q.guard.Validate(ErrGetCourierStatisticsQueryIsNotConstructed)
}

type CourierStatistics struct {
	CourierID       kernel.UUID
	Name            string
	Status          courier.Status
	Rating          float64
	RatedDeliveries int
	Completed       int64
	Pending         int64
	Failed          int64
}

// ListAvailableCouriersQuery lists couriers automatic assignment could pick right now,
// best ranked first.
type ListAvailableCouriersQuery struct {
	guard guard.ConstructorGuard
}

// NewListAvailableCouriersQuery lists couriers that could take a shipment now.
func NewListAvailableCouriersQuery() ListAvailableCouriersQuery {
	return ListAvailableCouriersQuery{guard: guard.NewConstructorGuard()}
}

func (q ListAvailableCouriersQuery) Validate() error {
	return q.guard.Validate(ErrListAvailableCouriersQueryIsNotConstructed)
}

type AvailableCourier struct {
	ID              kernel.UUID
	Name            string
	VehiclePlate    string
	Rating          float64
	ActiveShipments int
	LastSeen        *time.Time
	Location        *AddressView
}

type CourierOverviewQueryHandler struct {
	db        *gorm.DB
	maxActive int
}

// NewCourierOverviewQueryHandler takes the same active shipment cap the dispatcher uses.
func NewCourierOverviewQueryHandler(db *gorm.DB, maxActive int) CourierOverviewQueryHandler {
	return CourierOverviewQueryHandler{db: db, maxActive: maxActive}
}

// Statistics returns the courier's delivery counts and rating.
func (h CourierOverviewQueryHandler) Statistics(ctx context.Context, query GetCourierStatisticsQuery) (CourierStatistics, error) {
	if err := query.Validate(); err != nil {
		return CourierStatistics{}, err
	}

	var rows []struct {
		Name            string
		Status          string
		Rating          float64
		RatedDeliveries int
		Completed       int64
		Pending         int64
		Failed          int64
	}
	err := h.db.WithContext(ctx).Raw(`
		SELECT
			c.name, c.status, c.rating, c.rated_deliveries,
			COUNT(s.id) FILTER (WHERE s.status = ?) AS completed,
			COUNT(s.id) FILTER (WHERE s.status IN ?) AS pending,
			COUNT(s.id) FILTER (WHERE s.status = ?) AS failed
		FROM couriers c
		LEFT JOIN shipments s ON s.courier_id = c.id
		WHERE c.id = ?
		GROUP BY c.id
	`, string(shipment.Delivered), activeStatusNames(), string(shipment.Failed), query.courierID.Bytes()).
		Scan(&rows).Error
	if err != nil {
		return CourierStatistics{}, dberrs.Classify("load courier statistics", err)
	}
	if len(rows) == 0 {
		return CourierStatistics{}, errs.NewObjectNotFoundError("courier", query.courierID)
	}

	r := rows[0]
	return CourierStatistics{
		CourierID:       query.courierID,
		Name:            r.Name,
		Status:          courier.Status(r.Status),
		Rating:          r.Rating,
		RatedDeliveries: r.RatedDeliveries,
		Completed:       r.Completed,
		Pending:         r.Pending,
		Failed:          r.Failed,
	}, nil
}

// AvailableCouriers applies the automatic assignment filter and ranking in SQL.
func (h CourierOverviewQueryHandler) AvailableCouriers(
	ctx context.Context,
	query ListAvailableCouriersQuery,
) ([]AvailableCourier, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var rows []struct {
		ID              uuid.UUID
		Name            string
		VehiclePlate    string
		Rating          float64
		ActiveShipments int
		LastSeen        *time.Time
		LocationLat     *float64
		LocationLng     *float64
		LocationAddress string
	}
	err := h.db.WithContext(ctx).Raw(`
		SELECT c.id, c.name, c.vehicle_plate, c.rating, c.last_seen,
			c.location_lat, c.location_lng, c.location_address,
			COUNT(s.id) AS active_shipments
		FROM couriers c
		LEFT JOIN shipments s ON s.courier_id = c.id AND s.status IN ?
		WHERE c.status = ? AND c.online AND c.verified
		GROUP BY c.id
		HAVING ? <= 0 OR COUNT(s.id) < ?
		ORDER BY c.rating DESC, active_shipments ASC, c.created_at ASC, c.id ASC
	`, activeStatusNames(), string(courier.Active), h.maxActive, h.maxActive).Scan(&rows).Error
	if err != nil {
		return nil, dberrs.Classify("list available couriers", err)
	}

	result := make([]AvailableCourier, 0, len(rows))
	for _, r := range rows {
		id, err := kernel.UUIDFromBytes(r.ID[:])
		if err != nil {
			return nil, err
		}
		c := AvailableCourier{
			ID:              id,
			Name:            r.Name,
			VehiclePlate:    r.VehiclePlate,
			Rating:          r.Rating,
			ActiveShipments: r.ActiveShipments,
			LastSeen:        r.LastSeen,
		}
		if r.LocationLat != nil && r.LocationLng != nil {
			c.Location = &AddressView{Line: r.LocationAddress, Lat: *r.LocationLat, Lng: *r.LocationLng}
		}
		result = append(result, c)
	}
	return result, nil
}
