package handler // handler defines the HTTP handlers of the API

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/store-inventory/internal/apperr"
	"github.com/iliyamo/store-inventory/internal/logger"
	"github.com/iliyamo/store-inventory/internal/middleware"
	"github.com/iliyamo/store-inventory/internal/model"
)

// requestTimeout bounds the work of a single handler.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": message}.  Errors that are not
// *apperr.Error are treated as internal and their text is not exposed.
func respondError(c echo.Context, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err, "unclassified")
	}
	status := statusOf(ae.Kind)
	if status >= http.StatusInternalServerError {
		logger.FromEcho(c).Error("request failed", zap.Error(ae))
	}
	return c.JSON(status, echo.Map{"error": ae.Message})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}

// currentManager returns the manager resolved by the auth guard.
func currentManager(c echo.Context) (*model.Manager, error) {
	m, ok := middleware.CurrentManager(c)
	if !ok {
		return nil, apperr.Unauthorized("unauthorized")
	}
	return m, nil
}
