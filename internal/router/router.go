package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-inventory/internal/handler"
)

// Handlers bundles every API handler.
type Handlers struct {
	Managers    *handler.ManagerHandler
	Stores      *handler.StoreHandler
	Inventories *handler.InventoryHandler
	Items       *handler.ItemHandler
}

// Middleware bundles the middleware applied per route group.  Auth is
// required; nil limiters and cache are skipped.
type Middleware struct {
	Auth          echo.MiddlewareFunc
	RateLimit     echo.MiddlewareFunc
	AuthRateLimit echo.MiddlewareFunc
	Cache         echo.MiddlewareFunc
}

func nonNil(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, mw := range mws {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}

// RegisterRoutes registers the probes and the metrics endpoint.  They are
// not authenticated.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadinessHandler, metrics http.Handler) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready.Ready)
	}
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAPI registers the /v1 API.  Registration and token issuance are
// public and share the strict limiter; everything else runs behind the
// auth guard, then the global limiter, then the response cache.  Logout
// must reach the registry on every call, so it never passes the cache.
func RegisterAPI(e *echo.Echo, h Handlers, mw Middleware) {
	public := e.Group("/v1/managers", nonNil(mw.AuthRateLimit)...)
	public.POST("", h.Managers.Register)
	public.POST("/token", h.Managers.Token)

	session := e.Group("/v1/managers/logout", nonNil(mw.Auth, mw.RateLimit)...)
	session.POST("", h.Managers.Logout)
	session.GET("", h.Managers.Logout)

	auth := e.Group("/v1", nonNil(mw.Auth, mw.RateLimit, mw.Cache)...)

	auth.GET("/managers/me", h.Managers.Me)
	auth.PATCH("/managers/me", h.Managers.UpdateMe)
	auth.PUT("/managers/me/store", h.Managers.AssignStore)
	auth.DELETE("/managers/me/store", h.Managers.ReleaseStore)

	auth.GET("/stores", h.Stores.List)
	auth.POST("/stores", h.Stores.Create)
	auth.GET("/stores/:id", h.Stores.Get)
	auth.PATCH("/stores/:id", h.Stores.Update)
	auth.DELETE("/stores/:id", h.Stores.Delete)

	auth.GET("/store-inventories", h.Inventories.List)
	auth.POST("/store-inventories", h.Inventories.Create)
	auth.GET("/store-inventories/:id", h.Inventories.Get)
	auth.PATCH("/store-inventories/:id", h.Inventories.Update)
	auth.DELETE("/store-inventories/:id", h.Inventories.Delete)

	auth.GET("/items", h.Items.List)
	auth.POST("/items", h.Items.Create)
	auth.GET("/items/:id", h.Items.Get)
	auth.PATCH("/items/:id", h.Items.Update)
	auth.DELETE("/items/:id", h.Items.Delete)
}
