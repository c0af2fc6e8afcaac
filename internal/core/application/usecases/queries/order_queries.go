package queries

import (
	"context"
	"errors"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/pkg/dberrs"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
	ErrListCustomerOrdersQueryIsNotConstructed = errors.New(
		"ListCustomerOrdersQuery must be created via NewListCustomerOrdersQuery constructor",
	)
)

// GetOrderQuery reads one order. With a customer set, orders of other customers are
// reported as not found.
type GetOrderQuery struct {
	orderID    kernel.UUID
	customerID *kernel.UUID
	guard      guard.ConstructorGuard
}

// NewGetOrderQuery takes a nil customer for an unscoped staff read.
func NewGetOrderQuery(orderID kernel.UUID, customerID *kernel.UUID) (GetOrderQuery, error) {
	q := GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}

	errList := []error{orderID.Validate()}
	if customerID != nil {
		errList = append(errList, customerID.Validate())
		id := *customerID
		q.customerID = &id
	}
	if err := errors.Join(errList...); err != nil {
		return GetOrderQuery{}, err
	}
	return q, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) OrderID() kernel.UUID { return q.orderID }

// CustomerID is nil for an unscoped read.
func (q GetOrderQuery) CustomerID() *kernel.UUID { return q.customerID }

// ListCustomerOrdersQuery pages through one customer's orders, newest first,
// optionally filtered by order status.
type ListCustomerOrdersQuery struct {
	customerID kernel.UUID
	page       int
	perPage    int
	status     order.Status
	guard      guard.ConstructorGuard
}

// NewListCustomerOrdersQuery normalizes paging and rejects unknown statuses.
func NewListCustomerOrdersQuery(customerID kernel.UUID, page, perPage int, status string) (ListCustomerOrdersQuery, error) {
	q := ListCustomerOrdersQuery{customerID: customerID, guard: guard.NewConstructorGuard()}

	errList := []error{customerID.Validate()}
	if status != "" {
		parsed, err := order.ParseStatus(status)
		errList = append(errList, err)
		q.status = parsed
	}
	var err error
	q.page, q.perPage, err = normalizePaging(page, perPage)
	if err = errors.Join(append(errList, err)...); err != nil {
		return ListCustomerOrdersQuery{}, err
	}
	return q, nil
}

func (q ListCustomerOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListCustomerOrdersQueryIsNotConstructed)
}

func (q ListCustomerOrdersQuery) CustomerID() kernel.UUID { return q.customerID }
func (q ListCustomerOrdersQuery) Page() int               { return q.page }
func (q ListCustomerOrdersQuery) PerPage() int            { return q.perPage }

// OrderView is an order together with the ids and statuses of its shipment and payment.
type OrderView struct {
	ID             kernel.UUID
	CustomerID     kernel.UUID
	Status         order.Status
	Pickup         AddressView
	Dropoff        AddressView
	TotalAmount    int64
	Rating         *int
	Feedback       string
	CreatedAt      time.Time
	ShipmentID     kernel.UUID
	ShipmentStatus shipment.Status
	PaymentID      kernel.UUID
	PaymentStatus  payment.Status
	PaymentMethod  payment.Method
}

// OrderQueryHandler answers reads of orders for their customer and for staff.
type OrderQueryHandler struct {
	db *gorm.DB
}

// NewOrderQueryHandler creates a raw SQL reader for orders.
func NewOrderQueryHandler(db *gorm.DB) OrderQueryHandler {
	return OrderQueryHandler{db: db}
}

const orderColumns = `
	o.id, o.customer_id, o.status,
	o.pickup_address, o.pickup_lat, o.pickup_lng,
	o.dropoff_address, o.dropoff_lat, o.dropoff_lng,
	o.total_amount, o.rating, o.feedback, o.created_at,
	s.id AS shipment_id, s.status AS shipment_status,
	p.id AS payment_id, p.status AS payment_status, p.method AS payment_method`

const orderJoins = `
	FROM orders o
	JOIN shipments s ON s.order_id = o.id
	JOIN payments p ON p.shipment_id = s.id`

// Get returns the order or an ObjectNotFoundError.
func (h OrderQueryHandler) Get(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	sql := `SELECT ` + orderColumns + orderJoins + ` WHERE o.id = ?`
	args := []any{query.orderID.Bytes()}
	if query.customerID != nil {
		sql += ` AND o.customer_id = ?`
		args = append(args, query.customerID.Bytes())
	}

	var rows []orderRow
	if err := h.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return OrderView{}, dberrs.Classify("load order", err)
	}
	if len(rows) == 0 {
		return OrderView{}, errs.NewObjectNotFoundError("order", query.orderID)
	}
	return rows[0].view()
}

// ListForCustomer returns one page of the customer's orders.
func (h OrderQueryHandler) ListForCustomer(ctx context.Context, query ListCustomerOrdersQuery) (Page[OrderView], error) {
	if err := query.Validate(); err != nil {
		return Page[OrderView]{}, err
	}

	where, args := "WHERE o.customer_id = ?", []any{query.customerID.Bytes()}
	if query.status != "" {
		where += " AND o.status = ?"
		args = append(args, string(query.status))
	}
	db := h.db.WithContext(ctx)

	var total int64
	if err := db.Raw(`SELECT COUNT(*) FROM orders o `+where, args...).Scan(&total).Error; err != nil {
		return Page[OrderView]{}, dberrs.Classify("count orders", err)
	}

	var rows []orderRow
	err := db.Raw(`SELECT `+orderColumns+orderJoins+`
		`+where+`
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ? OFFSET ?
	`, append(args, query.perPage, offset(query.page, query.perPage))...).Scan(&rows).Error
	if err != nil {
		return Page[OrderView]{}, dberrs.Classify("list orders", err)
	}

	views := make([]OrderView, 0, len(rows))
	for _, r := range rows {
		v, err := r.view()
		if err != nil {
			return Page[OrderView]{}, err
		}
		views = append(views, v)
	}
	return newPage(views, total, query.page, query.perPage), nil
}

type orderRow struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	Status         string
	PickupAddress  string
	PickupLat      float64
	PickupLng      float64
	DropoffAddress string
	DropoffLat     float64
	DropoffLng     float64
	TotalAmount    int64
	Rating         *int
	Feedback       string
	CreatedAt      time.Time
	ShipmentID     uuid.UUID
	ShipmentStatus string
	PaymentID      uuid.UUID
	PaymentStatus  string
	PaymentMethod  string
}

func (r orderRow) view() (OrderView, error) {
	status, err := order.ParseStatus(r.Status)
	if err != nil {
		return OrderView{}, err
	}
	shipmentStatus, err := shipment.ParseStatus(r.ShipmentStatus)
	if err != nil {
		return OrderView{}, err
	}
	paymentStatus, err := payment.ParseStatus(r.PaymentStatus)
	if err != nil {
		return OrderView{}, err
	}
	method, err := payment.ParseMethod(r.PaymentMethod)
	if err != nil {
		return OrderView{}, err
	}
	ids, err := uuidsFromRow(r.ID, r.CustomerID, r.ShipmentID, r.PaymentID)
	if err != nil {
		return OrderView{}, err
	}

	return OrderView{
		ID:             ids[0],
		CustomerID:     ids[1],
		Status:         status,
		Pickup:         AddressView{Line: r.PickupAddress, Lat: r.PickupLat, Lng: r.PickupLng},
		Dropoff:        AddressView{Line: r.DropoffAddress, Lat: r.DropoffLat, Lng: r.DropoffLng},
		TotalAmount:    r.TotalAmount,
		Rating:         r.Rating,
		Feedback:       r.Feedback,
		CreatedAt:      r.CreatedAt,
		ShipmentID:     ids[2],
		ShipmentStatus: shipmentStatus,
		PaymentID:      ids[3],
		PaymentStatus:  paymentStatus,
		PaymentMethod:  method,
	}, nil
}
