package shipmentrepo

import (
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/shipment"

	"github.com/google/uuid"
)

type ShipmentDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_shipments_order_id"`
	CourierID     *uuid.UUID `gorm:"type:uuid;index:idx_shipments_courier_status,priority:1"`
	Pickup        AddressDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Destination   AddressDTO `gorm:"embedded;embeddedPrefix:destination_"`
	Status        string     `gorm:"size:20;not null;index:idx_shipments_courier_status,priority:2;index:idx_shipments_status_created,priority:1"`
	Version       int64      `gorm:"not null;default:0"`
	FailureReason string     `gorm:"size:500;not null;default:''"`
	CreatedAt     time.Time  `gorm:"not null;index:idx_shipments_status_created,priority:2"`
	AssignedAt    *time.Time
	PickedAt      *time.Time
	DeliveredAt   *time.Time
	FailedAt      *time.Time
}

func (ShipmentDTO) TableName() string {
	return "shipments"
}

type AddressDTO struct {
	Address string  `gorm:"size:255;not null"`
	Lat     float64 `gorm:"not null"`
	Lng     float64 `gorm:"not null"`
}

func addressFromDomain(a kernel.Address) AddressDTO {
	return AddressDTO{Address: a.Line(), Lat: a.Point().Lat(), Lng: a.Point().Lng()}
}

func (a AddressDTO) toDomain() (kernel.Address, error) {
	point, err := kernel.NewGeoPoint(a.Lat, a.Lng)
	if err != nil {
		return kernel.Address{}, err
	}
	return kernel.NewAddress(a.Address, point)
}

func fromDomain(s *shipment.Shipment) ShipmentDTO {
	var courierID *uuid.UUID
	if id := s.CourierID(); id != nil {
		raw := id.Bytes()
		courierID = &raw
	}

	return ShipmentDTO{
		ID:            s.ID().Bytes(),
		OrderID:       s.OrderID().Bytes(),
		CourierID:     courierID,
		Pickup:        addressFromDomain(s.Pickup()),
		Destination:   addressFromDomain(s.Destination()),
		Status:        string(s.Status()),
		Version:       s.Version(),
		FailureReason: s.FailureReason(),
		CreatedAt:     s.CreatedAt(),
		AssignedAt:    s.AssignedAt(),
		PickedAt:      s.PickedAt(),
		DeliveredAt:   s.DeliveredAt(),
		FailedAt:      s.FailedAt(),
	}
}

func toDomain(dto ShipmentDTO) (*shipment.Shipment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	var courierID *kernel.UUID
	if dto.CourierID != nil {
		cID, courierErr := kernel.UUIDFromBytes((*dto.CourierID)[:])
		if courierErr != nil {
			return nil, courierErr
		}
		courierID = &cID
	}

	pickup, err := dto.Pickup.toDomain()
	if err != nil {
		return nil, err
	}
	destination, err := dto.Destination.toDomain()
	if err != nil {
		return nil, err
	}

	return shipment.Restore(shipment.State{
		ID:            id,
		OrderID:       orderID,
		CourierID:     courierID,
		Pickup:        pickup,
		Destination:   destination,
		Status:        shipment.Status(dto.Status),
		Version:       dto.Version,
		FailureReason: dto.FailureReason,
		CreatedAt:     dto.CreatedAt,
		AssignedAt:    dto.AssignedAt,
		PickedAt:      dto.PickedAt,
		DeliveredAt:   dto.DeliveredAt,
		FailedAt:      dto.FailedAt,
	})
}
