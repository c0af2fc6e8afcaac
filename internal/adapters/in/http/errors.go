package http

import (
	"errors"
	"log/slog"
	"net/http"

	"quickdrop/internal/core/application/usecases/commands"
	"quickdrop/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

var (
	errUnauthenticated = errors.New("actor headers are missing or malformed")
	errForbidden       = errors.New("actor role may not perform this operation")
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// classify maps the error taxonomy onto transport statuses. Order matters: a stale
// version is also an invalid transition.
func classify(err error) (int, string) {
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, errForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrNotAssignedToActor):
		return http.StatusForbidden, "not_assigned_to_actor"
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, commands.ErrNoUnassignedShipment):
		return http.StatusNotFound, "no_unassigned_shipment"
	case errors.Is(err, errs.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, errs.ErrCourierUnavailable):
		return http.StatusConflict, "courier_unavailable"
	case errors.Is(err, errs.ErrNoCourierAvailable):
		return http.StatusConflict, "no_courier_available"
	case errors.Is(err, errs.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errs.IsValidationFailed(err):
		return http.StatusBadRequest, "validation_failed"
	case errors.As(err, &httpErr):
		return httpErr.Code, "http"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// handleError is installed as echo's HTTPErrorHandler. Server-side failures are
// logged with their cause and answered with a generic message.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, kind := classify(err)
	message := err.Error()
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"kind", kind,
			"error", err,
		)
		message = http.StatusText(code)
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	}
	if s.metrics != nil {
		s.metrics.HTTPErrors.WithLabelValues(kind).Inc()
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, Error{Code: code, Kind: kind, Message: message})
	}
	if err != nil {
		s.logger.Warn("write error response", slog.Any("error", err))
	}
}
