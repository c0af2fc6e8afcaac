package http

import (
	"time"

	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/core/application/usecases/queries"
	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

type Address struct {
	Line string  `json:"line"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (a Address) toDomain() (kernel.Address, error) {
	point, err := kernel.NewGeoPoint(a.Lat, a.Lng)
	if err != nil {
		return kernel.Address{}, err
	}
	return kernel.NewAddress(a.Line, point)
}

func addressOf(a kernel.Address) Address {
	return Address{Line: a.Line(), Lat: a.Point().Lat(), Lng: a.Point().Lng()}
}

func addressOfView(a queries.AddressView) Address {
	return Address{Line: a.Line, Lat: a.Lat, Lng: a.Lng}
}

// Requests.

type NewOrder struct {
	Pickup        Address `json:"pickup"`
	Dropoff       Address `json:"dropoff"`
	TotalAmount   int64   `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type ratingRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

type assignmentRequest struct {
	CourierID *openapi_types.UUID `json:"courier_id"`
}

type heartbeatRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type courierStatusRequest struct {
	Status string `json:"status"`
}

type NewAccount struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Name         string `json:"name,omitempty"`
	VehiclePlate string `json:"vehicle_plate,omitempty"`
}

// Responses.

type Order struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	Status      string    `json:"status"`
	TotalAmount int64     `json:"total_amount"`
	Pickup      Address   `json:"pickup"`
	Dropoff     Address   `json:"dropoff"`
	Rating      *int      `json:"rating,omitempty"`
	Feedback    string    `json:"feedback,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Set on reads, which join the shipment and the payment.
	ShipmentID     string `json:"shipment_id,omitempty"`
	ShipmentStatus string `json:"shipment_status,omitempty"`
	PaymentID      string `json:"payment_id,omitempty"`
	PaymentStatus  string `json:"payment_status,omitempty"`
	PaymentMethod  string `json:"payment_method,omitempty"`
}

func orderOf(o *order.Order) Order {
	return Order{
		ID:          o.ID().String(),
		CustomerID:  o.CustomerID().String(),
		Status:      string(o.Status()),
		TotalAmount: o.Total().Minor(),
		Pickup:      addressOf(o.Pickup()),
		Dropoff:     addressOf(o.Dropoff()),
		Rating:      o.Rating(),
		Feedback:    o.Feedback(),
		CreatedAt:   o.CreatedAt(),
	}
}

func orderOfView(v queries.OrderView) Order {
	return Order{
		ID:             v.ID.String(),
		CustomerID:     v.CustomerID.String(),
		Status:         string(v.Status),
		TotalAmount:    v.TotalAmount,
		Pickup:         addressOfView(v.Pickup),
		Dropoff:        addressOfView(v.Dropoff),
		Rating:         v.Rating,
		Feedback:       v.Feedback,
		CreatedAt:      v.CreatedAt,
		ShipmentID:     v.ShipmentID.String(),
		ShipmentStatus: string(v.ShipmentStatus),
		PaymentID:      v.PaymentID.String(),
		PaymentStatus:  string(v.PaymentStatus),
		PaymentMethod:  string(v.PaymentMethod),
	}
}

type Shipment struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order_id"`
	CourierID     *string    `json:"courier_id,omitempty"`
	Status        string     `json:"status"`
	StatusHuman   string     `json:"status_human"`
	Version       *int64     `json:"version,omitempty"`
	Pickup        Address    `json:"pickup"`
	Destination   Address    `json:"destination"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	AssignedAt    *time.Time `json:"assigned_at,omitempty"`
	PickedAt      *time.Time `json:"picked_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	FailedAt      *time.Time `json:"failed_at,omitempty"`
}

func shipmentOf(s *shipment.Shipment) Shipment {
	version := s.Version()
	return Shipment{
		ID:            s.ID().String(),
		OrderID:       s.OrderID().String(),
		CourierID:     idString(s.CourierID()),
		Status:        string(s.Status()),
		StatusHuman:   s.Status().HumanLabel(),
		Version:       &version,
		Pickup:        addressOf(s.Pickup()),
		Destination:   addressOf(s.Destination()),
		FailureReason: s.FailureReason(),
		CreatedAt:     s.CreatedAt(),
		AssignedAt:    s.AssignedAt(),
		PickedAt:      s.PickedAt(),
		DeliveredAt:   s.DeliveredAt(),
		FailedAt:      s.FailedAt(),
	}
}

func shipmentOfView(v queries.ShipmentView) Shipment {
	return Shipment{
		ID:            v.ID.String(),
		OrderID:       v.OrderID.String(),
		CourierID:     idString(v.CourierID),
		Status:        string(v.Status),
		StatusHuman:   v.StatusHuman,
		Pickup:        addressOfView(v.Pickup),
		Destination:   addressOfView(v.Destination),
		FailureReason: v.FailureReason,
		CreatedAt:     v.CreatedAt,
		AssignedAt:    v.AssignedAt,
		PickedAt:      v.PickedAt,
		DeliveredAt:   v.DeliveredAt,
		FailedAt:      v.FailedAt,
	}
}

func shipmentsOfViews(views []queries.ShipmentView) []Shipment {
	out := make([]Shipment, 0, len(views))
	for _, v := range views {
		out = append(out, shipmentOfView(v))
	}
	return out
}

type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

type (
	ShipmentPage = Page[Shipment]
	OrderPage    = Page[Order]
	PaymentPage  = Page[Payment]
)

func pageOf[V, T any](p queries.Page[V], render func(V) T) Page[T] {
	items := make([]T, 0, len(p.Items))
	for _, v := range p.Items {
		items = append(items, render(v))
	}
	return Page[T]{
		Items:   items,
		Total:   p.Total,
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   p.Pages,
		HasNext: p.HasNext,
		HasPrev: p.HasPrev,
	}
}

func shipmentPageOf(p queries.Page[queries.ShipmentView]) ShipmentPage {
	return pageOf(p, shipmentOfView)
}

func orderPageOf(p queries.Page[queries.OrderView]) OrderPage {
	return pageOf(p, orderOfView)
}

func paymentPageOf(p queries.Page[queries.PaymentView]) PaymentPage {
	return pageOf(p, paymentOfView)
}

type Payment struct {
	ID         string     `json:"id"`
	ShipmentID string     `json:"shipment_id"`
	OrderID    string     `json:"order_id,omitempty"`
	Method     string     `json:"method"`
	Status     string     `json:"status"`
	Amount     *int64     `json:"amount,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func paymentOfView(v queries.PaymentView) Payment {
	amount := v.Amount
	return Payment{
		ID:         v.ID.String(),
		ShipmentID: v.ShipmentID.String(),
		OrderID:    v.OrderID.String(),
		Method:     string(v.Method),
		Status:     string(v.Status),
		Amount:     &amount,
		PaidAt:     v.PaidAt,
		CreatedAt:  v.CreatedAt,
	}
}

func paymentOf(p *payment.Payment) Payment {
	return Payment{
		ID:         p.ID().String(),
		ShipmentID: p.ShipmentID().String(),
		Method:     string(p.Method()),
		Status:     string(p.Status()),
		PaidAt:     p.PaidAt(),
		CreatedAt:  p.CreatedAt(),
	}
}

type PlacedOrder struct {
	Order    Order    `json:"order"`
	Shipment Shipment `json:"shipment"`
	Payment  Payment  `json:"payment"`
}

type Courier struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Name            string     `json:"name"`
	VehiclePlate    string     `json:"vehicle_plate"`
	Status          string     `json:"status"`
	Online          bool       `json:"online"`
	Verified        bool       `json:"verified"`
	LastSeen        *time.Time `json:"last_seen,omitempty"`
	Location        *Address   `json:"location,omitempty"`
	Rating          float64    `json:"rating"`
	RatedDeliveries int        `json:"rated_deliveries"`
	CreatedAt       time.Time  `json:"created_at"`
}

func courierOf(c *courier.Courier) Courier {
	out := Courier{
		ID:              c.ID().String(),
		UserID:          c.UserID().String(),
		Name:            c.Name(),
		VehiclePlate:    c.VehiclePlate(),
		Status:          string(c.Status()),
		Online:          c.IsOnline(),
		Verified:        c.IsVerified(),
		LastSeen:        c.LastSeen(),
		Rating:          c.Rating(),
		RatedDeliveries: c.RatedDeliveries(),
		CreatedAt:       c.CreatedAt(),
	}
	if p := c.Location(); p != nil {
		out.Location = &Address{Line: c.LocationAddress(), Lat: p.Lat(), Lng: p.Lng()}
	}
	return out
}

type AvailableCourier struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	VehiclePlate    string     `json:"vehicle_plate"`
	Rating          float64    `json:"rating"`
	ActiveShipments int        `json:"active_shipments"`
	LastSeen        *time.Time `json:"last_seen,omitempty"`
	Location        *Address   `json:"location,omitempty"`
}

func availableCouriersOf(list []queries.AvailableCourier) []AvailableCourier {
	out := make([]AvailableCourier, 0, len(list))
	for _, c := range list {
		a := AvailableCourier{
			ID:              c.ID.String(),
			Name:            c.Name,
			VehiclePlate:    c.VehiclePlate,
			Rating:          c.Rating,
			ActiveShipments: c.ActiveShipments,
			LastSeen:        c.LastSeen,
		}
		if c.Location != nil {
			loc := addressOfView(*c.Location)
			a.Location = &loc
		}
		out = append(out, a)
	}
	return out
}

type CourierStatistics struct {
	CourierID       string  `json:"courier_id"`
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	Rating          float64 `json:"rating"`
	RatedDeliveries int     `json:"rated_deliveries"`
	Completed       int64   `json:"completed"`
	Pending         int64   `json:"pending"`
	Failed          int64   `json:"failed"`
}

func statisticsOf(s queries.CourierStatistics) CourierStatistics {
	return CourierStatistics{
		CourierID:       s.CourierID.String(),
		Name:            s.Name,
		Status:          string(s.Status),
		Rating:          s.Rating,
		RatedDeliveries: s.RatedDeliveries,
		Completed:       s.Completed,
		Pending:         s.Pending,
		Failed:          s.Failed,
	}
}

type Timeline struct {
	OrderPlacedAt     time.Time  `json:"order_placed_at"`
	CourierAssignedAt *time.Time `json:"courier_assigned_at,omitempty"`
	PickedUpAt        *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	FailedAt          *time.Time `json:"failed_at,omitempty"`
}

type Tracking struct {
	ShipmentID    string   `json:"shipment_id"`
	OrderID       string   `json:"order_id"`
	Status        string   `json:"status"`
	StatusHuman   string   `json:"status_human"`
	CourierName   string   `json:"courier_name,omitempty"`
	Pickup        Address  `json:"pickup"`
	Destination   Address  `json:"destination"`
	FailureReason string   `json:"failure_reason,omitempty"`
	Timeline      Timeline `json:"timeline"`
}

func trackingOf(t queries.ShipmentTracking) Tracking {
	return Tracking{
		ShipmentID:    t.ShipmentID.String(),
		OrderID:       t.OrderID.String(),
		Status:        string(t.Status),
		StatusHuman:   t.StatusHuman,
		CourierName:   t.CourierName,
		Pickup:        addressOfView(t.Pickup),
		Destination:   addressOfView(t.Destination),
		FailureReason: t.FailureReason,
		Timeline: Timeline{
			OrderPlacedAt:     t.Timeline.OrderPlacedAt,
			CourierAssignedAt: t.Timeline.CourierAssignedAt,
			PickedUpAt:        t.Timeline.PickedUpAt,
			DeliveredAt:       t.Timeline.DeliveredAt,
			FailedAt:          t.Timeline.FailedAt,
		},
	}
}

type Account struct {
	UserID     string   `json:"user_id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Role       string   `json:"role"`
	CustomerID string   `json:"customer_id,omitempty"`
	Courier    *Courier `json:"courier,omitempty"`
}

func accountOf(a commands.RegisteredAccount) Account {
	out := Account{
		UserID:   a.User.ID().String(),
		Username: a.User.Username(),
		Email:    a.User.Email(),
		Phone:    a.User.Phone(),
		Role:     string(a.User.Role()),
	}
	if a.Customer != nil {
		out.CustomerID = a.Customer.ID().String()
	}
	if a.Courier != nil {
		c := courierOf(a.Courier)
		out.Courier = &c
	}
	return out
}

func idString(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
