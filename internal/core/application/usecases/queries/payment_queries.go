package queries

import (
	"context"
	"errors"
	"time"

	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/pkg/dberrs"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/guard"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGetPaymentQueryIsNotConstructed = errors.New(
		"GetPaymentQuery must be created via NewGetPaymentQuery constructor",
	)
	ErrListPaymentsQueryIsNotConstructed = errors.New(
		"ListPaymentsQuery must be created via NewListPaymentsQuery constructor",
	)
)

// GetPaymentQuery reads one payment. With a customer set, payments for orders of
// other customers are reported as not found.
type GetPaymentQuery struct {
	paymentID  kernel.UUID
	customerID *kernel.UUID
	guard      guard.ConstructorGuard
}

// NewGetPaymentQuery takes a nil customer for an unscoped staff read.
func NewGetPaymentQuery(paymentID kernel.UUID, customerID *kernel.UUID) (GetPaymentQuery, error) {
	q := GetPaymentQuery{paymentID: paymentID, guard: guard.NewConstructorGuard()}

	errList := []error{paymentID.Validate()}
	if customerID != nil {
		errList = append(errList, customerID.Validate())
		id := *customerID
		q.customerID = &id
	}
	if err := errors.Join(errList...); err != nil {
		return GetPaymentQuery{}, err
	}
	return q, nil
}

func (q GetPaymentQuery) Validate() error {
	return q.guard.Validate(ErrGetPaymentQueryIsNotConstructed)
}

func (q GetPaymentQuery) PaymentID() kernel.UUID   { return q.paymentID }
func (q GetPaymentQuery) CustomerID() *kernel.UUID { return q.customerID }

// ListPaymentsQuery is the staff listing of payments, newest first, optionally
// filtered by status.
type ListPaymentsQuery struct {
	page    int
	perPage int
	status  payment.Status
	guard   guard.ConstructorGuard
}

// NewListPaymentsQuery normalizes paging and rejects unknown statuses.
func NewListPaymentsQuery(page, perPage int, status string) (ListPaymentsQuery, error) {
	q := ListPaymentsQuery{guard: guard.NewConstructorGuard()}
	if status != "" {
		parsed, err := payment.ParseStatus(status)
		if err != nil {
			return ListPaymentsQuery{}, err
		}
		q.status = parsed
	}
	var err error
	if q.page, q.perPage, err = normalizePaging(page, perPage); err != nil {
		return ListPaymentsQuery{}, err
	}
	return q, nil
}

func (q ListPaymentsQuery) Validate() error {
	return q.guard.Validate(ErrListPaymentsQueryIsNotConstructed)
}

func (q ListPaymentsQuery) Status() payment.Status { return q.status }

// PaymentView carries the amount from the order the payment settles.
type PaymentView struct {
	ID         kernel.UUID
	ShipmentID kernel.UUID
	OrderID    kernel.UUID
	Method     payment.Method
	Status     payment.Status
	Amount     int64
	PaidAt     *time.Time
	CreatedAt  time.Time
}

// PaymentQueryHandler reads payments joined with the order amount.
type PaymentQueryHandler struct {
	db *gorm.DB
}

// NewPaymentQueryHandler creates a raw SQL reader for payments.
func NewPaymentQueryHandler(db *gorm.DB) PaymentQueryHandler {
	return PaymentQueryHandler{db: db}
}

const paymentColumns = `
	p.id, p.shipment_id, s.order_id, p.method, p.status,
	o.total_amount AS amount, p.paid_at, p.created_at`

const paymentJoins = `
	FROM payments p
	JOIN shipments s ON s.id = p.shipment_id
	JOIN orders o ON o.id = s.order_id`

// Get returns the payment or an ObjectNotFoundError.
func (h PaymentQueryHandler) Get(ctx context.Context, query GetPaymentQuery) (PaymentView, error) {
	if err := query.Validate(); err != nil {
		return PaymentView{}, err
	}

	sql := `SELECT ` + paymentColumns + paymentJoins + ` WHERE p.id = ?`
	args := []any{query.paymentID.Bytes()}
	if query.customerID != nil {
		sql += ` AND o.customer_id = ?`
		args = append(args, query.customerID.Bytes())
	}

	var rows []paymentRow
	if err := h.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return PaymentView{}, dberrs.Classify("load payment", err)
	}
	if len(rows) == 0 {
		return PaymentView{}, errs.NewObjectNotFoundError("payment", query.paymentID)
	}
	return rows[0].view()
}

// List returns one page of payments for staff.
func (h PaymentQueryHandler) List(ctx context.Context, query ListPaymentsQuery) (Page[PaymentView], error) {
	if err := query.Validate(); err != nil {
		return Page[PaymentView]{}, err
	}

	where, args := "", []any{}
	if query.status != "" {
		where, args = "WHERE p.status = ?", append(args, string(query.status))
	}
	db := h.db.WithContext(ctx)

	var total int64
	if err := db.Raw(`SELECT COUNT(*) FROM payments p `+where, args...).Scan(&total).Error; err != nil {
		return Page[PaymentView]{}, dberrs.Classify("count payments", err)
	}

	var rows []paymentRow
	err := db.Raw(`SELECT `+paymentColumns+paymentJoins+`
		`+where+`
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?
	`, append(args, query.perPage, offset(query.page, query.perPage))...).Scan(&rows).Error
	if err != nil {
		return Page[PaymentView]{}, dberrs.Classify("list payments", err)
	}

	views := make([]PaymentView, 0, len(rows))
	for _, r := range rows {
		v, err := r.view()
		if err != nil {
			return Page[PaymentView]{}, err
		}
		views = append(views, v)
	}
	return newPage(views, total, query.page, query.perPage), nil
}

type paymentRow struct {
	ID         uuid.UUID
	ShipmentID uuid.UUID
	OrderID    uuid.UUID
	Method     string
	Status     string
	Amount     int64
	PaidAt     *time.Time
	CreatedAt  time.Time
}

func (r paymentRow) view() (PaymentView, error) {
	status, err := payment.ParseStatus(r.Status)
	if err != nil {
		return PaymentView{}, err
	}
	method, err := payment.ParseMethod(r.Method)
	if err != nil {
		return PaymentView{}, err
	}
	ids, err := uuidsFromRow(r.ID, r.ShipmentID, r.OrderID)
	if err != nil {
		return PaymentView{}, err
	}
	return PaymentView{
		ID:         ids[0],
		ShipmentID: ids[1],
		OrderID:    ids[2],
		Method:     method,
		Status:     status,
		Amount:     r.Amount,
		PaidAt:     r.PaidAt,
		CreatedAt:  r.CreatedAt,
	}, nil
}
