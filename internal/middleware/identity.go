package middleware

// identity.go stores and retrieves the authenticated manager on the echo
// context.  Handlers only see a manager after Authenticate accepted the
// request.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-inventory/internal/auth"
	"github.com/iliyamo/store-inventory/internal/model"
)

const (
	ctxManager = "manager"
	ctxClaims  = "claims"
)

// SetIdentity records the resolved manager and verified claims.
func SetIdentity(c echo.Context, m *model.Manager, claims *auth.Claims) {
	c.Set(ctxManager, m)
	c.Set(ctxClaims, claims)
}

// CurrentManager returns the authenticated manager.
func CurrentManager(c echo.Context) (*model.Manager, bool) {
	m, ok := c.Get(ctxManager).(*model.Manager)
	return m, ok && m != nil
}

// CurrentClaims returns the claims of the presented token.
func CurrentClaims(c echo.Context) (*auth.Claims, bool) {
	cl, ok := c.Get(ctxClaims).(*auth.Claims)
	return cl, ok && cl != nil
}

// managerKey identifies the caller for rate limiting and caching.  It
// returns "anon" before authentication.
func managerKey(c echo.Context) string {
	if m, ok := CurrentManager(c); ok {
		return m.ID.String()
	}
	return "anon"
}
