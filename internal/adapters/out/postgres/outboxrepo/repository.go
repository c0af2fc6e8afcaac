// Package outboxrepo stores domain events next to the rows that produced them and
// hands them to the relay.
package outboxrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/ports"
	"quickdrop/internal/pkg/dberrs"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutboxEventDTO keeps the payload as text; lib/pq would send a []byte as bytea.
type OutboxEventDTO struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AggregateID uuid.UUID  `gorm:"type:uuid;not null;index"`
	EventType   string     `gorm:"type:varchar(64);not null"`
	Payload     string     `gorm:"type:jsonb;not null"`
	OccurredAt  time.Time  `gorm:"not null;index:idx_outbox_unpublished,priority:2"`
	PublishedAt *time.Time `gorm:"index:idx_outbox_unpublished,priority:1"`
}

func (OutboxEventDTO) TableName() string {
	return "outbox_events"
}

type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Append(ctx context.Context, events []kernel.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	dtos := make([]OutboxEventDTO, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e.Payload())
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", e.Name(), err)
		}
		dtos = append(dtos, OutboxEventDTO{
			ID:          e.ID().Bytes(),
			AggregateID: e.AggregateID().Bytes(),
			EventType:   e.Name(),
			Payload:     string(payload),
			OccurredAt:  e.OccurredAt(),
		})
	}

	if err := r.db.WithContext(ctx).Create(&dtos).Error; err != nil {
		return dberrs.Classify("append outbox events", err)
	}
	return nil
}

func (r *GormOutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var dtos []OutboxEventDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL").
		Order("occurred_at ASC, id ASC").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, dberrs.Classify("fetch outbox events", err)
	}

	messages := make([]ports.OutboxMessage, 0, len(dtos))
	for _, dto := range dtos {
		id, err := kernel.UUIDFromBytes(dto.ID[:])
		if err != nil {
			return nil, err
		}
		aggregateID, err := kernel.UUIDFromBytes(dto.AggregateID[:])
		if err != nil {
			return nil, err
		}
		messages = append(messages, ports.OutboxMessage{
			ID:          id,
			AggregateID: aggregateID,
			EventType:   dto.EventType,
			Payload:     []byte(dto.Payload),
			OccurredAt:  dto.OccurredAt,
		})
	}
	return messages, nil
}

func (r *GormOutboxRepository) MarkPublished(ctx context.Context, ids []kernel.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}

	err := r.db.WithContext(ctx).Model(&OutboxEventDTO{}).
		Where("id = ANY(?::uuid[])", pq.Array(raw)).
		Update("published_at", at).Error
	if err != nil {
		return dberrs.Classify("mark outbox events published", err)
	}
	return nil
}
