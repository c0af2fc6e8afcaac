package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the echo instance serving the API, /health and /metrics.
func NewRouter(s *Server, gatherer prometheus.Gatherer) (*echo.Echo, error) {
	doc, err := Contract()
	if err != nil {
		return nil, err
	}
	validate, err := validateRequests(doc)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	e.Use(s.observe)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api/v1", validate)

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.ListOrders)
	api.GET("/orders/:orderId", s.GetOrder)
	api.POST("/orders/:orderId/cancellation", s.CancelOrder)
	api.POST("/orders/:orderId/rating", s.RateDelivery)

	api.GET("/shipments", s.ListShipments)
	api.POST("/shipments/auto-assignment", s.AutoAssignNext)
	api.POST("/shipments/:shipmentId/assignment", s.AssignShipment)
	api.POST("/shipments/:shipmentId/acceptance", s.AcceptShipment)
	api.POST("/shipments/:shipmentId/pickup", s.ConfirmPickup)
	api.POST("/shipments/:shipmentId/departure", s.StartDelivery)
	api.POST("/shipments/:shipmentId/delivery", s.CompleteDelivery)
	api.POST("/shipments/:shipmentId/failure", s.FailShipment)
	api.GET("/shipments/:shipmentId/tracking", s.GetShipmentTracking)

	api.GET("/payments", s.ListPayments)
	api.GET("/payments/:paymentId", s.GetPayment)
	api.POST("/payments/:paymentId/settlement", s.SettlePayment)
	api.POST("/payments/:paymentId/failure", s.FailPayment)
	api.POST("/payments/:paymentId/refund", s.RefundPayment)

	api.GET("/couriers/available", s.ListAvailableCouriers)
	api.POST("/couriers/me/heartbeat", s.Heartbeat)
	api.POST("/couriers/me/offline", s.GoOffline)
	api.GET("/couriers/me/current-task", s.GetCurrentTask)
	api.GET("/couriers/me/upcoming-tasks", s.GetUpcomingTasks)
	api.GET("/couriers/me/history", s.GetTaskHistory)
	api.PUT("/couriers/:courierId/status", s.UpdateCourierStatus)
	api.POST("/couriers/:courierId/verification", s.VerifyCourier)
	api.GET("/couriers/:courierId/statistics", s.GetCourierStatistics)

	api.POST("/registrations/customers", s.RegisterCustomer)
	api.POST("/registrations/couriers", s.RegisterCourier)

	return e, nil
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
			}
			s.logger.LogAttrs(c.Request().Context(), level, "http request",
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.String("route", v.RoutePath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}

// observe counts requests by route pattern, so ids in paths do not explode the
// label set.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		if s.metrics == nil {
			return err
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Response().Status)
		s.metrics.HTTPRequests.WithLabelValues(c.Request().Method, path, status).Inc()
		s.metrics.HTTPDuration.WithLabelValues(c.Request().Method, path, status).Observe(time.Since(start).Seconds())
		return err
	}
}
