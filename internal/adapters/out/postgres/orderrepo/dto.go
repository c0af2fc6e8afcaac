package orderrepo

import (
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"

	"github.com/google/uuid"
)

type OrderDTO struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Pickup      AddressDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff     AddressDTO `gorm:"embedded;embeddedPrefix:dropoff_"`
	TotalAmount int64      `gorm:"not null"`
	Status      string     `gorm:"size:20;not null;index"`
	Rating      *int
	Feedback    string    `gorm:"size:1000;not null;default:''"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type AddressDTO struct {
	Address string  `gorm:"size:255;not null"`
	Lat     float64 `gorm:"not null"`
	Lng     float64 `gorm:"not null"`
}

func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:         o.ID().Bytes(),
		CustomerID: o.CustomerID().Bytes(),
		Pickup: AddressDTO{
			Address: o.Pickup().Line(),
			Lat:     o.Pickup().Point().Lat(),
			Lng:     o.Pickup().Point().Lng(),
		},
		Dropoff: AddressDTO{
			Address: o.Dropoff().Line(),
			Lat:     o.Dropoff().Point().Lat(),
			Lng:     o.Dropoff().Point().Lng(),
		},
		TotalAmount: o.Total().Minor(),
		Status:      string(o.Status()),
		Rating:      o.Rating(),
		Feedback:    o.Feedback(),
		CreatedAt:   o.CreatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	pickup, err := toAddress(dto.Pickup)
	if err != nil {
		return nil, err
	}
	dropoff, err := toAddress(dto.Dropoff)
	if err != nil {
		return nil, err
	}
	total, err := kernel.NewMoney(dto.TotalAmount)
	if err != nil {
		return nil, err
	}

	return order.Restore(order.State{
		ID:         id,
		CustomerID: customerID,
		Pickup:     pickup,
		Dropoff:    dropoff,
		Total:      total,
		Status:     order.Status(dto.Status),
		Rating:     dto.Rating,
		Feedback:   dto.Feedback,
		CreatedAt:  dto.CreatedAt,
	})
}

func toAddress(dto AddressDTO) (kernel.Address, error) {
	point, err := kernel.NewGeoPoint(dto.Lat, dto.Lng)
	if err != nil {
		return kernel.Address{}, err
	}
	return kernel.NewAddress(dto.Address, point)
}
