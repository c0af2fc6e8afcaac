package queries

import (
	"context"

	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/dberrs"

	"gorm.io/gorm"
)

// CourierTaskQueryHandler answers the courier's own view of its work.
type CourierTaskQueryHandler struct {
	db *gorm.DB
}

// NewCourierTaskQueryHandler creates a raw SQL reader for a courier's shipments.
func NewCourierTaskQueryHandler(db *gorm.DB) CourierTaskQueryHandler {
	return CourierTaskQueryHandler{db: db}
}

// CurrentTask returns nil when the courier has no non-terminal shipment.
func (h CourierTaskQueryHandler) CurrentTask(ctx context.Context, query GetCourierCurrentTaskQuery) (*ShipmentView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var rows []shipmentRow
	err := h.db.WithContext(ctx).Raw(`
		SELECT `+shipmentColumns+`
		FROM shipments s
		WHERE s.courier_id = ? AND s.status IN ?
		ORDER BY s.assigned_at ASC, s.created_at ASC, s.id ASC
		LIMIT 1
	`, query.CourierID().Bytes(), activeStatusNames()).Scan(&rows).Error
	if err != nil {
		return nil, dberrs.Classify("load current task", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	v, err := rows[0].view()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpcomingTasks returns assigned shipments not yet picked up, in assignment order.
func (h CourierTaskQueryHandler) UpcomingTasks(ctx context.Context, query GetUpcomingTasksQuery) ([]ShipmentView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var rows []shipmentRow
	err := h.db.WithContext(ctx).Raw(`
		SELECT `+shipmentColumns+`
		FROM shipments s
		WHERE s.courier_id = ? AND s.status = ?
		ORDER BY s.assigned_at ASC, s.id ASC
		LIMIT ?
	`, query.CourierID().Bytes(), string(shipment.Assigned), query.Limit()).Scan(&rows).Error
	if err != nil {
		return nil, dberrs.Classify("load upcoming tasks", err)
	}
	return shipmentViews(rows)
}

// TaskHistory returns one page of finished shipments, newest first.
func (h CourierTaskQueryHandler) TaskHistory(ctx context.Context, query GetTaskHistoryQuery) (Page[ShipmentView], error) {
	if err := query.Validate(); err != nil {
		return Page[ShipmentView]{}, err
	}

	finished := []string{string(shipment.Delivered), string(shipment.Failed)}
	db := h.db.WithContext(ctx)

	var total int64
	err := db.Raw(`
		SELECT COUNT(*) FROM shipments s WHERE s.courier_id = ? AND s.status IN ?
	`, query.CourierID().Bytes(), finished).Scan(&total).Error
	if err != nil {
		return Page[ShipmentView]{}, dberrs.Classify("count task history", err)
	}

	var rows []shipmentRow
	err = db.Raw(`
		SELECT `+shipmentColumns+`
		FROM shipments s
		WHERE s.courier_id = ? AND s.status IN ?
		ORDER BY COALESCE(s.delivered_at, s.failed_at) DESC, s.id DESC
		LIMIT ? OFFSET ?
	`, query.CourierID().Bytes(), finished, query.PerPage(), offset(query.Page(), query.PerPage())).Scan(&rows).Error
	if err != nil {
		return Page[ShipmentView]{}, dberrs.Classify("load task history", err)
	}

	views, err := shipmentViews(rows)
	if err != nil {
		return Page[ShipmentView]{}, err
	}
	return newPage(views, total, query.Page(), query.PerPage()), nil
}
