package queries

import (
	"context"
	"errors"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/dberrs"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"

	"gorm.io/gorm"
)

var ErrGetShipmentTrackingQueryIsNotConstructed = errors.New(
	"GetShipmentTrackingQuery must be created via NewGetShipmentTrackingQuery constructor",
)

// GetShipmentTrackingQuery returns what a customer sees when following a shipment.
// With a customer set, shipments of other customers are reported as not found.
type GetShipmentTrackingQuery struct {
	shipmentID kernel.UUID
	customerID *kernel.UUID
	guard      guard.ConstructorGuard
}

// NewGetShipmentTrackingQuery takes a nil customer for an unscoped staff read.
func NewGetShipmentTrackingQuery(shipmentID kernel.UUID, customerID *kernel.UUID) (GetShipmentTrackingQuery, error) {
	q := GetShipmentTrackingQuery{shipmentID: shipmentID, guard: guard.NewConstructorGuard()}

	errList := []error{shipmentID.Validate()}
	if customerID != nil {
		errList = append(errList, customerID.Validate())
		id := *customerID
		q.customerID = &id
	}
	if err := errors.Join(errList...); err != nil {
		return GetShipmentTrackingQuery{}, err
	}
	return q, nil
}

func (q GetShipmentTrackingQuery) Validate() error {
	return q.guard.Validate(ErrGetShipmentTrackingQueryIsNotConstructed)
}

type Timeline struct {
	OrderPlacedAt     time.Time
	CourierAssignedAt *time.Time
	PickedUpAt        *time.Time
	DeliveredAt       *time.Time
	FailedAt          *time.Time
}

type ShipmentTracking struct {
	ShipmentID    kernel.UUID
	OrderID       kernel.UUID
	Status        shipment.Status
	StatusHuman   string
	CourierName   string
	Pickup        AddressView
	Destination   AddressView
	FailureReason string
	Timeline      Timeline
}

type GetShipmentTrackingQueryHandler struct {
	db *gorm.DB
}

// NewGetShipmentTrackingQueryHandler creates the tracking reader.
func NewGetShipmentTrackingQueryHandler(db *gorm.DB) GetShipmentTrackingQueryHandler {
	return GetShipmentTrackingQueryHandler{db: db}
}

// Handle returns the shipment with its courier and history, or an ObjectNotFoundError.
func (h GetShipmentTrackingQueryHandler) Handle(ctx context.Context, query GetShipmentTrackingQuery) (ShipmentTracking, error) {
	if err := query.Validate(); err != nil {
		return ShipmentTracking{}, err
	}

	sql := `
		SELECT ` + shipmentColumns + `, COALESCE(c.name, '') AS courier_name
		FROM shipments s
		JOIN orders o ON o.id = s.order_id
		LEFT JOIN couriers c ON c.id = s.courier_id
		WHERE s.id = ?`
	args := []any{query.shipmentID.Bytes()}
	if query.customerID != nil {
		sql += ` AND o.customer_id = ?`
		args = append(args, query.customerID.Bytes())
	}

	var rows []struct {
		Shipment    shipmentRow `gorm:"embedded"`
		CourierName string
	}
	if err := h.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return ShipmentTracking{}, dberrs.Classify("load shipment tracking", err)
	}
	if len(rows) == 0 {
		return ShipmentTracking{}, errs.NewObjectNotFoundError("shipment", query.shipmentID)
	}

	v, err := rows[0].Shipment.view()
	if err != nil {
		return ShipmentTracking{}, err
	}
	return ShipmentTracking{
		ShipmentID:    v.ID,
		OrderID:       v.OrderID,
		Status:        v.Status,
		StatusHuman:   v.StatusHuman,
		CourierName:   rows[0].CourierName,
		Pickup:        v.Pickup,
		Destination:   v.Destination,
		FailureReason: v.FailureReason,
		Timeline: Timeline{
			OrderPlacedAt:     v.CreatedAt,
			CourierAssignedAt: v.AssignedAt,
			PickedUpAt:        v.PickedAt,
			DeliveredAt:       v.DeliveredAt,
			FailedAt:          v.FailedAt,
		},
	}, nil
}
