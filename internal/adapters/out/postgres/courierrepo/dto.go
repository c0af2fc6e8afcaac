// Package courierrepo persists courier aggregates. Writes are column scoped so that
// presence updates and status changes made by different actors never overwrite each other.
package courierrepo

import (
	"time"

	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO is the row of the couriers table.
type CourierDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_couriers_user_id"`
	Name            string     `gorm:"type:varchar(100);not null"`
	VehiclePlate    string     `gorm:"type:varchar(32);not null;default:''"`
	Status          string     `gorm:"type:varchar(20);not null;index"`
	Online          bool       `gorm:"not null;default:false"`
	Verified        bool       `gorm:"not null;default:false"`
	LastSeen        *time.Time `gorm:"index"`
	LocationLat     *float64
	LocationLng     *float64
	LocationAddress string    `gorm:"type:varchar(255);not null;default:''"`
	Rating          float64   `gorm:"not null;default:0"`
	RatedDeliveries int       `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (CourierDTO) TableName() string {
	return "couriers"
}

func fromDomain(c *courier.Courier) CourierDTO {
	dto := CourierDTO{
		ID:              c.ID().Bytes(),
		UserID:          c.UserID().Bytes(),
		Name:            c.Name(),
		VehiclePlate:    c.VehiclePlate(),
		Status:          string(c.Status()),
		Online:          c.IsOnline(),
		Verified:        c.IsVerified(),
		LastSeen:        c.LastSeen(),
		LocationAddress: c.LocationAddress(),
		Rating:          c.Rating(),
		RatedDeliveries: c.RatedDeliveries(),
		CreatedAt:       c.CreatedAt(),
	}
	if loc := c.Location(); loc != nil {
		lat, lng := loc.Lat(), loc.Lng()
		dto.LocationLat, dto.LocationLng = &lat, &lng
	}
	return dto
}

func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	userID, err := kernel.UUIDFromBytes(dto.UserID[:])
	if err != nil {
		return nil, err
	}

	var location *kernel.GeoPoint
	if dto.LocationLat != nil && dto.LocationLng != nil {
		point, pointErr := kernel.NewGeoPoint(*dto.LocationLat, *dto.LocationLng)
		if pointErr != nil {
			return nil, pointErr
		}
		location = &point
	}

	return courier.Restore(courier.State{
		ID:              id,
		UserID:          userID,
		Name:            dto.Name,
		VehiclePlate:    dto.VehiclePlate,
		Status:          courier.Status(dto.Status),
		Online:          dto.Online,
		Verified:        dto.Verified,
		LastSeen:        dto.LastSeen,
		Location:        location,
		LocationAddress: dto.LocationAddress,
		Rating:          dto.Rating,
		RatedDeliveries: dto.RatedDeliveries,
		CreatedAt:       dto.CreatedAt,
	})
}
