// Package paymentrepo persists payment status records.
package paymentrepo

import (
	"context"
	"errors"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/pkg/dberrs"
	"quickdrop/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShipmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_payments_shipment"`
	Method     string    `gorm:"type:varchar(10);not null"`
	Status     string    `gorm:"type:varchar(10);not null;index"`
	PaidAt     *time.Time
	CreatedAt  time.Time `gorm:"not null"`
}

func (PaymentDTO) TableName() string {
	return "payments"
}

type GormPaymentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormPaymentRepository(db *gorm.DB, tracker aggregateTracker) *GormPaymentRepository {
	return &GormPaymentRepository{db: db, tracker: tracker}
}

func (r *GormPaymentRepository) Add(ctx context.Context, aggregate *payment.Payment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return dberrs.Classify("add payment", err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormPaymentRepository) Update(ctx context.Context, aggregate *payment.Payment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&PaymentDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"status":  dto.Status,
		"paid_at": dto.PaidAt,
	})
	if result.Error != nil {
		return dberrs.Classify("update payment", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("payment", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormPaymentRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*payment.Payment, error) {
	return r.lock(ctx, "id = ?", id, id.String())
}

func (r *GormPaymentRepository) GetByShipmentIDForUpdate(ctx context.Context, shipmentID kernel.UUID) (*payment.Payment, error) {
	return r.lock(ctx, "shipment_id = ?", shipmentID, "shipment "+shipmentID.String())
}

func (r *GormPaymentRepository) lock(ctx context.Context, where string, id kernel.UUID, ref string) (*payment.Payment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto PaymentDTO
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where(where, id.Bytes()).Take(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("payment", ref)
		}
		return nil, dberrs.Classify("lock payment", err)
	}

	return toDomain(dto)
}

func fromDomain(p *payment.Payment) PaymentDTO {
	return PaymentDTO{
		ID:         p.ID().Bytes(),
		ShipmentID: p.ShipmentID().Bytes(),
		Method:     string(p.Method()),
		Status:     string(p.Status()),
		PaidAt:     p.PaidAt(),
		CreatedAt:  p.CreatedAt(),
	}
}

func toDomain(dto PaymentDTO) (*payment.Payment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	shipmentID, err := kernel.UUIDFromBytes(dto.ShipmentID[:])
	if err != nil {
		return nil, err
	}

	return payment.Restore(payment.State{
		ID:         id,
		ShipmentID: shipmentID,
		Method:     payment.Method(dto.Method),
		Status:     payment.Status(dto.Status),
		PaidAt:     dto.PaidAt,
		CreatedAt:  dto.CreatedAt,
	})
}
