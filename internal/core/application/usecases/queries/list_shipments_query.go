package queries

import (
	"context"
	"errors"

	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/dberrs"
	"quickdrop/internal/pkg/guard"

	"gorm.io/gorm"
)

var ErrListShipmentsQueryIsNotConstructed = errors.New(
	"ListShipmentsQuery must be created via NewListShipmentsQuery constructor",
)

// ListShipmentsQuery is the staff listing of all shipments, newest first, optionally
// filtered by status. An empty status means all.
type ListShipmentsQuery struct {
	page    int
	perPage int
	status  shipment.Status
	guard   guard.ConstructorGuard
}

// NewListShipmentsQuery normalizes paging and rejects unknown statuses.
func NewListShipmentsQuery(page, perPage int, status string) (ListShipmentsQuery, error) {
	q := ListShipmentsQuery{guard: guard.NewConstructorGuard()}
	if status != "" {
		parsed, err := shipment.ParseStatus(status)
		if err != nil {
			return ListShipmentsQuery{}, err
		}
		q.status = parsed
	}
	var err error
	if q.page, q.perPage, err = normalizePaging(page, perPage); err != nil {
		return ListShipmentsQuery{}, err
	}
	return q, nil
}

func (q ListShipmentsQuery) Validate() error {
	return q.guard.Validate(ErrListShipmentsQueryIsNotConstructed)
}

type ListShipmentsQueryHandler struct {
	db *gorm.DB
}

// NewListShipmentsQueryHandler creates the staff shipment listing.
func NewListShipmentsQueryHandler(db *gorm.DB) ListShipmentsQueryHandler {
	return ListShipmentsQueryHandler{db: db}
}

// Handle returns one page of shipments, newest first.
func (h ListShipmentsQueryHandler) Handle(ctx context.Context, query ListShipmentsQuery) (Page[ShipmentView], error) {
	if err := query.Validate(); err != nil {
		return Page[ShipmentView]{}, err
	}

	where, args := "", []any{}
	if query.status != "" {
		where, args = "WHERE s.status = ?", append(args, string(query.status))
	}
	db := h.db.WithContext(ctx)

	var total int64
	if err := db.Raw(`SELECT COUNT(*) FROM shipments s `+where, args...).Scan(&total).Error; err != nil {
		return Page[ShipmentView]{}, dberrs.Classify("count shipments", err)
	}

	var rows []shipmentRow
	err := db.Raw(`
		SELECT `+shipmentColumns+`
		FROM shipments s
		`+where+`
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT ? OFFSET ?
	`, append(args, query.perPage, offset(query.page, query.perPage))...).Scan(&rows).Error
	if err != nil {
		return Page[ShipmentView]{}, dberrs.Classify("list shipments", err)
	}

	views, err := shipmentViews(rows)
	if err != nil {
		return Page[ShipmentView]{}, err
	}
	return newPage(views, total, query.page, query.perPage), nil
}
