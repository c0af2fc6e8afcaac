// Package queries contains read operations. Handlers run plain SQL against the
// database and return read models shaped for the caller; they never load aggregates.
package queries

import (
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/errs"

	"github.com/google/uuid"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	// maxPage keeps (page-1)*perPage far from overflowing an OFFSET.
	maxPage = 100_000
)

type AddressView struct {
	Line string
	Lat  float64
	Lng  float64
}

// ShipmentView is the read model shared by the courier task and staff listing queries.
type ShipmentView struct {
	ID            kernel.UUID
	OrderID       kernel.UUID
	CourierID     *kernel.UUID
	Status        shipment.Status
	StatusHuman   string
	Pickup        AddressView
	Destination   AddressView
	FailureReason string
	CreatedAt     time.Time
	AssignedAt    *time.Time
	PickedAt      *time.Time
	DeliveredAt   *time.Time
	FailedAt      *time.Time
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items   []T
	Total   int64
	Page    int
	PerPage int
	Pages   int
	HasNext bool
	HasPrev bool
}

func newPage[T any](items []T, total int64, page, perPage int) Page[T] {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return Page[T]{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// normalizePaging clamps page to at least 1 and resets perPage outside 1..100 to 20.
// A page beyond maxPage is rejected.
func normalizePaging(page, perPage int) (int, int, error) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		return 0, 0, errs.NewValueIsOutOfRangeError("page", page, 1, maxPage)
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	return page, perPage, nil
}

func offset(page, perPage int) int {
	return (page - 1) * perPage
}

const shipmentColumns = `
	s.id, s.order_id, s.courier_id, s.status,
	s.pickup_address, s.pickup_lat, s.pickup_lng,
	s.destination_address, s.destination_lat, s.destination_lng,
	s.failure_reason, s.created_at, s.assigned_at, s.picked_at, s.delivered_at, s.failed_at`

type shipmentRow struct {
	ID                 uuid.UUID
	OrderID            uuid.UUID
	CourierID          *uuid.UUID
	Status             string
	PickupAddress      string
	PickupLat          float64
	PickupLng          float64
	DestinationAddress string
	DestinationLat     float64
	DestinationLng     float64
	FailureReason      string
	CreatedAt          time.Time
	AssignedAt         *time.Time
	PickedAt           *time.Time
	DeliveredAt        *time.Time
	FailedAt           *time.Time
}

func (r shipmentRow) view() (ShipmentView, error) {
	id, err := kernel.UUIDFromBytes(r.ID[:])
	if err != nil {
		return ShipmentView{}, err
	}
	orderID, err := kernel.UUIDFromBytes(r.OrderID[:])
	if err != nil {
		return ShipmentView{}, err
	}
	status, err := shipment.ParseStatus(r.Status)
	if err != nil {
		return ShipmentView{}, err
	}

	v := ShipmentView{
		ID:            id,
		OrderID:       orderID,
		Status:        status,
		StatusHuman:   status.HumanLabel(),
		Pickup:        AddressView{Line: r.PickupAddress, Lat: r.PickupLat, Lng: r.PickupLng},
		Destination:   AddressView{Line: r.DestinationAddress, Lat: r.DestinationLat, Lng: r.DestinationLng},
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
		AssignedAt:    r.AssignedAt,
		PickedAt:      r.PickedAt,
		DeliveredAt:   r.DeliveredAt,
		FailedAt:      r.FailedAt,
	}
	if r.CourierID != nil {
		courierID, err := kernel.UUIDFromBytes(r.CourierID[:])
		if err != nil {
			return ShipmentView{}, err
		}
		v.CourierID = &courierID
	}
	return v, nil
}

func shipmentViews(rows []shipmentRow) ([]ShipmentView, error) {
	views := make([]ShipmentView, 0, len(rows))
	for _, r := range rows {
		v, err := r.view()
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func activeStatusNames() []string {
	active := shipment.ActiveStatuses()
	names := make([]string, 0, len(active))
	for _, s := range active {
		names = append(names, string(s))
	}
	return names
}

func uuidsFromRow(raw ...uuid.UUID) ([]kernel.UUID, error) {
	ids := make([]kernel.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := kernel.UUIDFromBytes(r[:])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
