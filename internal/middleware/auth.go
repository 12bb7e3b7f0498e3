package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/store-inventory/internal/auth"
	"github.com/iliyamo/store-inventory/internal/logger"
	"github.com/iliyamo/store-inventory/internal/metrics"
	"github.com/iliyamo/store-inventory/internal/model"
	"github.com/iliyamo/store-inventory/internal/repository"
)

// TokenVerifier validates a raw bearer token.  *auth.TokenManager implements it.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// ManagerLookup resolves the token subject.
type ManagerLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Manager, error)
}

// Rejection reasons.  They are logged and counted, never sent to the client.
const (
	reasonMissingToken   = "missing_token"
	reasonInvalidToken   = "invalid_token"
	reasonRevoked        = "revoked"
	reasonRegistryError  = "registry_error"
	reasonUnknownManager = "unknown_manager"
	reasonLookupError    = "lookup_error"
)

const guardTimeout = 3 * time.Second

// Authenticate is the authorization guard.  A request passes through
// token presence, signature and expiry, revocation and manager resolution
// in that order; any failing step ends it with the same 401 body.  On
// success the manager and the claims are available via CurrentManager and
// CurrentClaims.
func Authenticate(tokens TokenVerifier, registry auth.RevocationRegistry, managers ManagerLookup, mx *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)
			reject := func(reason string, fields ...zap.Field) error {
				log.Warn("request rejected by auth guard", append(fields, zap.String("reason", reason))...)
				mx.ObserveRejection(reason)
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return reject(reasonMissingToken)
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				return reject(reasonInvalidToken)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), guardTimeout)
			defer cancel()

			revoked, err := registry.IsRevoked(ctx, claims.ID)
			if err != nil {
				return reject(reasonRegistryError, zap.String("jti", claims.ID), zap.Error(err))
			}
			if revoked {
				return reject(reasonRevoked, zap.String("jti", claims.ID))
			}

			id, err := claims.ManagerID()
			if err != nil {
				return reject(reasonInvalidToken)
			}
			m, err := managers.GetByID(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return reject(reasonUnknownManager, zap.String("manager_id", id.String()))
			}
			if err != nil {
				return reject(reasonLookupError, zap.String("manager_id", id.String()), zap.Error(err))
			}

			SetIdentity(c, m, claims)
			logger.Set(c, log.With(zap.String("manager_id", m.ID.String())))
			return next(c)
		}
	}
}

// bearerToken extracts the token from an Authorization header.  The scheme
// is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
