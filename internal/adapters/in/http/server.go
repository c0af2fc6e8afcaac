package http

import (
	"context"
	"log/slog"
	"net/http"

	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/core/application/usecases/queries"
	"quickdrop/internal/core/domain/model/courier"
	"quickdrop/internal/core/domain/model/kernel"
	"quickdrop/internal/core/domain/model/order"
	"quickdrop/internal/core/domain/model/payment"
	"quickdrop/internal/core/domain/model/shipment"
	"quickdrop/internal/core/domain/model/user"
	"quickdrop/internal/metrics"
	"quickdrop/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Handler is a command or query use case.
type Handler[In, Out any] interface {
	Handle(ctx context.Context, in In) (Out, error)
}

// HandlerFunc adapts a query method such as CourierTaskQueryHandler.CurrentTask.
type HandlerFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

func (f HandlerFunc[In, Out]) Handle(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}

// Handlers are the use cases the transport exposes.
type Handlers struct {
	CreateOrder         Handler[commands.CreateOrderCommand, commands.PlacedOrder]
	CancelOrder         Handler[commands.CancelOrderCommand, *order.Order]
	RateDelivery        Handler[commands.RateDeliveryCommand, *order.Order]
	AssignShipment      Handler[commands.AssignShipmentCommand, *shipment.Shipment]
	AutoAssignNext      Handler[commands.AutoAssignNextCommand, *shipment.Shipment]
	TransitionShipment  Handler[commands.ShipmentTransitionCommand, *shipment.Shipment]
	FailShipment        Handler[commands.FailShipmentCommand, *shipment.Shipment]
	ChangePayment       Handler[commands.ChangePaymentStatusCommand, *payment.Payment]
	UpdateCourierStatus Handler[commands.UpdateCourierStatusCommand, *courier.Courier]
	CourierPresence     Handler[commands.CourierPresenceCommand, *courier.Courier]
	Heartbeat           Handler[commands.HeartbeatCommand, *courier.Courier]
	RegisterAccount     Handler[commands.RegisterAccountCommand, commands.RegisteredAccount]

	ShipmentTracking  Handler[queries.GetShipmentTrackingQuery, queries.ShipmentTracking]
	ListShipments     Handler[queries.ListShipmentsQuery, queries.Page[queries.ShipmentView]]
	CurrentTask       Handler[queries.GetCourierCurrentTaskQuery, *queries.ShipmentView]
	UpcomingTasks     Handler[queries.GetUpcomingTasksQuery, []queries.ShipmentView]
	TaskHistory       Handler[queries.GetTaskHistoryQuery, queries.Page[queries.ShipmentView]]
	CourierStatistics Handler[queries.GetCourierStatisticsQuery, queries.CourierStatistics]
	AvailableCouriers Handler[queries.ListAvailableCouriersQuery, []queries.AvailableCourier]
	GetOrder          Handler[queries.GetOrderQuery, queries.OrderView]
	CustomerOrders    Handler[queries.ListCustomerOrdersQuery, queries.Page[queries.OrderView]]
	GetPayment        Handler[queries.GetPaymentQuery, queries.PaymentView]
	ListPayments      Handler[queries.ListPaymentsQuery, queries.Page[queries.PaymentView]]
}

// Server translates HTTP requests into commands and queries. It holds no state of
// its own; every decision is made by the use cases.
type Server struct {
	h       Handlers
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewServer(h Handlers, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{h: h, metrics: m, logger: logger.With("component", "http")}
}

// CreateOrder handles POST /api/v1/orders. The acting customer places the order.
func (s *Server) CreateOrder(c echo.Context) error {
	a, err := requireActor(c, user.RoleCustomer)
	if err != nil {
		return err
	}
	var body NewOrder
	if err = bindBody(c, &body); err != nil {
		return err
	}

	pickup, err := body.Pickup.toDomain()
	if err != nil {
		return err
	}
	dropoff, err := body.Dropoff.toDomain()
	if err != nil {
		return err
	}
	total, err := kernel.NewMoney(body.TotalAmount)
	if err != nil {
		return err
	}
	method, err := payment.ParseMethod(body.PaymentMethod)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCreateOrderCommand(a.id, pickup, dropoff, total, method)
	if err != nil {
		return err
	}
	placed, err := s.h.CreateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, PlacedOrder{
		Order:    orderOf(placed.Order),
		Shipment: shipmentOf(placed.Shipment),
		Payment:  paymentOf(placed.Payment),
	})
}

// CancelOrder handles POST /api/v1/orders/{orderId}/cancellation. Customers may
// cancel their own orders, staff any order.
func (s *Server) CancelOrder(c echo.Context) error {
	a, err := requireActor(c, staffOr(user.RoleCustomer)...)
	if err != nil {
		return err
	}
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}
	var body reasonRequest
	if err = bindBody(c, &body); err != nil {
		return err
	}

	var actorCustomerID *kernel.UUID
	if !a.isStaff() {
		actorCustomerID = &a.id
	}
	cmd, err := commands.NewCancelOrderCommand(orderID, actorCustomerID, body.Reason)
	if err != nil {
		return err
	}
	o, err := s.h.CancelOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderOf(o))
}

func (s *Server) RateDelivery(c echo.Context) error {
	a, err := requireActor(c, user.RoleCustomer)
	if err != nil {
		return err
	}
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}
	var body ratingRequest
	if err = bindBody(c, &body); err != nil {
		return err
	}

	cmd, err := commands.NewRateDeliveryCommand(orderID, a.id, body.Rating, body.Feedback)
	if err != nil {
		return err
	}
	o, err := s.h.RateDelivery.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orderOf(o))
}

func (s *Server) ListShipments(c echo.Context) error {
	if _, err := requireActor(c, staff...); err != nil {
		return err
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	perPage, err := queryInt(c, "per_page")
	if err != nil {
		return err
	}
	status, err := queryString(c, "status")
	if err != nil {
		return err
	}

	query, err := queries.NewListShipmentsQuery(page, perPage, status)
	if err != nil {
		return err
	}
	result, err := s.h.ListShipments.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipmentPageOf(result))
}

// AssignShipment handles POST /api/v1/shipments/{shipmentId}/assignment. Without a
// courier_id the best ranked available courier is chosen.
func (s *Server) AssignShipment(c echo.Context) error {
	if _, err := requireActor(c, staff...); err != nil {
		return err
	}
	shipmentID, err := pathUUID(c, "shipmentId")
	if err != nil {
		return err
	}
	var body assignmentRequest
	if err = bindBody(c, &body); err != nil {
		return err
	}
	courierID, err := optionalUUID(body.CourierID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewAssignShipmentCommand(shipmentID, courierID)
	if err != nil {
		return err
	}
	return respond(c, s.h.AssignShipment, cmd, shipmentOf)
}

func (s *Server) AutoAssignNext(c echo.Context) error {
	if _, err := requireActor(c, staff...); err != nil {
		return err
	}
	return respond(c, s.h.AutoAssignNext, commands.NewAutoAssignNextCommand(), shipmentOf)
}

// AcceptShipment lets a courier take an unassigned shipment.
func (s *Server) AcceptShipment(c echo.Context) error {
	a, err := requireActor(c, user.RoleCourier)
	if err != nil {
		return err
	}
	shipmentID, err := pathUUID(c, "shipmentId")
	if err != nil {
		return err
	}

	cmd, err := commands.NewAcceptShipmentCommand(shipmentID, a.id)
	if err != nil {
		return err
	}
	return respond(c, s.h.AssignShipment, cmd, shipmentOf)
}

func (s *Server) ConfirmPickup(c echo.Context) error {
	return s.courierTransition(c, commands.NewConfirmPickupCommand)
}

func (s *Server) StartDelivery(c echo.Context) error {
	return s.courierTransition(c, commands.NewStartDeliveryCommand)
}

func (s *Server) CompleteDelivery(c echo.Context) error {
	return s.courierTransition(c, commands.NewCompleteDeliveryCommand)
}

func (s *Server) courierTransition(
	c echo.Context,
	newCommand func(shipmentID, actorCourierID kernel.UUID) (commands.ShipmentTransitionCommand, error),
) error {
	a, err := requireActor(c, user.RoleCourier)
	if err != nil {
		return err
	}
	shipmentID, err := pathUUID(c, "shipmentId")
	if err != nil {
		return err
	}

	cmd, err := newCommand(shipmentID, a.id)
	if err != nil {
		return err
	}
	return respond(c, s.h.TransitionShipment, cmd, shipmentOf)
}

// FailShipment handles POST /api/v1/shipments/{shipmentId}/failure. A courier may
// only fail its own shipment; staff may fail any.
func (s *Server) FailShipment(c echo.Context) error {
	a, err := requireActor(c, staffOr(user.RoleCourier)...)
	if err != nil {
		return err
	}
	shipmentID, err := pathUUID(c, "shipmentId")
	if err != nil {
		return err
	}
	var body reasonRequest
	if err = bindBody(c, &body); err != nil {
		return err
	}

	var actorCourierID *kernel.UUID
	if !a.isStaff() {
		actorCourierID = &a.id
	}
	cmd, err := commands.NewFailShipmentCommand(shipmentID, actorCourierID, body.Reason)
	if err != nil {
		return err
	}
	return respond(c, s.h.FailShipment, cmd, shipmentOf)
}

// GetShipmentTracking hides other customers' shipments behind a not found.
func (s *Server) GetShipmentTracking(c echo.Context) error {
	a, err := requireActor(c, staffOr(user.RoleCustomer)...)
	if err != nil {
		return err
	}
	shipmentID, err := pathUUID(c, "shipmentId")
	if err != nil {
		return err
	}

	query, err := queries.NewGetShipmentTrackingQuery(shipmentID, a.customerScope())
	if err != nil {
		return err
	}
	tracking, err := s.h.ShipmentTracking.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trackingOf(tracking))
}

// GetOrder handles GET /api/v1/orders/{orderId}. A customer only sees its own orders.
func (s *Server) GetOrder(c echo.Context) error {
	a, err := requireActor(c, staffOr(user.RoleCustomer)...)
	if err != nil {
		return err
	}
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderQuery(orderID, a.customerScope())
	if err != nil {
		return err
	}
	return respond(c, s.h.GetOrder, query, orderOfView)
}

// ListOrders handles GET /api/v1/orders. A customer lists its own orders; staff name
// the customer with customer_id.
func (s *Server) ListOrders(c echo.Context) error {
	a, err := requireActor(c, staffOr(user.RoleCustomer)...)
	if err != nil {
		return err
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	perPage, err := queryInt(c, "per_page")
	if err != nil {
		return err
	}
	status, err := queryString(c, "status")
	if err != nil {
		return err
	}
	customerID, err := queryUUID(c, "customer_id")
	if err != nil {
		return err
	}
	if !a.isStaff() {
		customerID = &a.id
	}
	if customerID == nil {
		return errs.NewValueIsRequiredError("customer_id")
	}

	query, err := queries.NewListCustomerOrdersQuery(*customerID, page, perPage, status)
	if err != nil {
		return err
	}
	return respond(c, s.h.CustomerOrders, query, orderPageOf)
}

// GetPayment handles GET /api/v1/payments/{paymentId}. A customer only sees payments
// of its own orders.
func (s *Server) GetPayment(c echo.Context) error {
	a, err := requireActor(c, staffOr(user.RoleCustomer)...)
	if err != nil {
		return err
	}
	paymentID, err := pathUUID(c, "paymentId")
	if err != nil {
		return err
	}

	query, err := queries.NewGetPaymentQuery(paymentID, a.customerScope())
	if err != nil {
		return err
	}
	return respond(c, s.h.GetPayment, query, paymentOfView)
}

func (s *Server) ListPayments(c echo.Context) error {
	if _, err := requireActor(c, staff...); err != nil {
		return err
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	perPage, err := queryInt(c, "per_page")
	if err != nil {
		return err
	}
	status, err := queryString(c, "status")
	if err != nil {
		return err
	}

	query, err := queries.NewListPaymentsQuery(page, perPage, status)
	if err != nil {
		return err
	}
	return respond(c, s.h.ListPayments, query, paymentPageOf)
}

func (s *Server) SettlePayment(c echo.Context) error {
	return s.changePayment(c, commands.NewSettlePaymentCommand)
}

func (s *Server) FailPayment(c echo.Context) error {
	return s.changePayment(c, commands.NewFailPaymentCommand)
}

func (s *Server) RefundPayment(c echo.Context) error {
	return s.changePayment(c, commands.NewRefundPaymentCommand)
}

func (s *Server) changePayment(
	c echo.Context,
	newCommand func(paymentID kernel.UUID) (commands.ChangePaymentStatusCommand, error),
) error {
	if _, err := requireActor(c, staff...); err != nil {
		return err
	}
	paymentID, err := pathUUID(c, "paymentId")
	if err != nil {
		return err
	}

	cmd, err := newCommand(paymentID)
	if err != nil {
		return err
	}
	p, err := s.h.ChangePayment.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paymentOf(p))
}

// UpdateCourierStatus is open to staff, who may set any status, and to the courier
// itself, which may only go on or off shift.
func (s *Server) UpdateCourierStatus(c echo.Context) error {
	a, err := requireActor(c, staffOr(user.RoleCourier)...)
	if err != nil {
		return err
	}
	courierID, err := pathUUID(c, "courierId")
	if err != nil {
		return err
	}
	if !a.isStaff() && !a.id.IsEqual(courierID) {
		return errForbidden
	}
	var body courierStatusRequest
	if err = bindBody(c, &body); err != nil {
		return err
	}

	newCommand := commands.NewUpdateCourierStatusCommand
	if !a.isStaff() {
		newCommand = commands.NewChangeOwnShiftCommand
	}
	cmd, err := newCommand(courierID, body.Status)
	if err != nil {
		return err
	}
	return respond(c, s.h.UpdateCourierStatus, cmd, courierOf)
}

func (s *Server) VerifyCourier(c echo.Context) error {
	if _, err := requireActor(c, staff...); err != nil {
		return err
	}
	courierID, err := pathUUID(c, "courierId")
	if err != nil {
		return err
	}

	cmd, err := commands.NewVerifyCourierCommand(courierID)
	if err != nil {
		return err
	}
	return respond(c, s.h.CourierPresence, cmd, courierOf)
}

func (s *Server) ListAvailableCouriers(c echo.Context) error {
	if _, err := requireActor(c, staff...); err != nil {
		return err
	}
	list, err := s.h.AvailableCouriers.Handle(c.Request().Context(), queries.NewListAvailableCouriersQuery())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, availableCouriersOf(list))
}

func (s *Server) GetCourierStatistics(c echo.Context) error {
	a, err := requireActor(c, staffOr(user.RoleCourier)...)
	if err != nil {
		return err
	}
	courierID, err := pathUUID(c, "courierId")
	if err != nil {
		return err
	}
	if !a.isStaff() && !a.id.IsEqual(courierID) {
		return errForbidden
	}

	query, err := queries.NewGetCourierStatisticsQuery(courierID)
	if err != nil {
		return err
	}
	stats, err := s.h.CourierStatistics.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statisticsOf(stats))
}

func (s *Server) Heartbeat(c echo.Context) error {
	a, err := requireActor(c, user.RoleCourier)
	if err != nil {
		return err
	}
	var body heartbeatRequest
	if err = bindBody(c, &body); err != nil {
		return err
	}

	cmd, err := commands.NewHeartbeatCommand(a.id, body.Lat, body.Lng, body.Address)
	if err != nil {
		return err
	}
	return respond(c, s.h.Heartbeat, cmd, courierOf)
}

func (s *Server) GoOffline(c echo.Context) error {
	a, err := requireActor(c, user.RoleCourier)
	if err != nil {
		return err
	}
	cmd, err := commands.NewGoOfflineCommand(a.id)
	if err != nil {
		return err
	}
	return respond(c, s.h.CourierPresence, cmd, courierOf)
}

// GetCurrentTask answers 204 when the courier has nothing in progress.
func (s *Server) GetCurrentTask(c echo.Context) error {
	a, err := requireActor(c, user.RoleCourier)
	if err != nil {
		return err
	}
	query, err := queries.NewGetCourierCurrentTaskQuery(a.id)
	if err != nil {
		return err
	}
	task, err := s.h.CurrentTask.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	if task == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, shipmentOfView(*task))
}

func (s *Server) GetUpcomingTasks(c echo.Context) error {
	a, err := requireActor(c, user.RoleCourier)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	query, err := queries.NewGetUpcomingTasksQuery(a.id, limit)
	if err != nil {
		return err
	}
	tasks, err := s.h.UpcomingTasks.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipmentsOfViews(tasks))
}

func (s *Server) GetTaskHistory(c echo.Context) error {
	a, err := requireActor(c, user.RoleCourier)
	if err != nil {
		return err
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	perPage, err := queryInt(c, "per_page")
	if err != nil {
		return err
	}
	query, err := queries.NewGetTaskHistoryQuery(a.id, page, perPage)
	if err != nil {
		return err
	}
	history, err := s.h.TaskHistory.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipmentPageOf(history))
}

func (s *Server) RegisterCustomer(c echo.Context) error {
	var body NewAccount
	if err := bindBody(c, &body); err != nil {
		return err
	}
	cmd, err := commands.NewRegisterCustomerCommand(body.Username, body.Email, body.Phone)
	if err != nil {
		return err
	}
	return s.respondAccount(c, cmd)
}

func (s *Server) RegisterCourier(c echo.Context) error {
	var body NewAccount
	if err := bindBody(c, &body); err != nil {
		return err
	}
	cmd, err := commands.NewRegisterCourierCommand(body.Username, body.Email, body.Phone, body.Name, body.VehiclePlate)
	if err != nil {
		return err
	}
	return s.respondAccount(c, cmd)
}

func (s *Server) respondAccount(c echo.Context, cmd commands.RegisterAccountCommand) error {
	account, err := s.h.RegisterAccount.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, accountOf(account))
}

func respond[In, Out, Body any](c echo.Context, h Handler[In, Out], in In, render func(Out) Body) error {
	out, err := h.Handle(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render(out))
}
