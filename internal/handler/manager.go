package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-inventory/internal/apperr"
	"github.com/iliyamo/store-inventory/internal/metrics"
	"github.com/iliyamo/store-inventory/internal/middleware"
	"github.com/iliyamo/store-inventory/internal/service"
)

// ManagerHandler serves registration, token issuance, logout and the
// manager's own profile.
type ManagerHandler struct {
	svc *service.ManagerService
	mx  *metrics.Metrics
}

func NewManagerHandler(svc *service.ManagerService, mx *metrics.Metrics) *ManagerHandler {
	return &ManagerHandler{svc: svc, mx: mx}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /v1/managers.
func (h *ManagerHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	m, err := h.svc.Register(ctx, service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// tokenRequest accepts JSON or a password-grant style form where the
// email travels as username.
type tokenRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Token handles POST /v1/managers/token.
func (h *ManagerHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = strings.TrimSpace(req.Username)
	}
	if email == "" || req.Password == "" {
		return badRequest(c, "username/password required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	tok, err := h.svc.Login(ctx, email, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			h.mx.ObserveLogin(metrics.LoginBadCredential)
		} else {
			h.mx.ObserveLogin(metrics.LoginError)
		}
		return respondError(c, err)
	}
	h.mx.ObserveLogin(metrics.LoginSuccess)
	return c.JSON(http.StatusOK, tok)
}

// Logout revokes the presented token.  It replies only after the
// revocation is stored.
func (h *ManagerHandler) Logout(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	claims, _ := middleware.CurrentClaims(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Logout(ctx, m, claims); err != nil {
		return respondError(c, err)
	}
	h.mx.ObserveLogout()
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the authenticated manager.
func (h *ManagerHandler) Me(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

type profileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateMe handles PATCH /v1/managers/me.
func (h *ManagerHandler) UpdateMe(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.svc.UpdateProfile(ctx, m, service.ProfilePatch{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type assignRequest struct {
	StoreID string `json:"store_id"`
}

// AssignStore handles PUT /v1/managers/me/store.
func (h *ManagerHandler) AssignStore(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	storeID, err := uuid.Parse(strings.TrimSpace(req.StoreID))
	if err != nil {
		return badRequest(c, "invalid store_id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.svc.AssignStore(ctx, m, storeID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ReleaseStore handles DELETE /v1/managers/me/store.
func (h *ManagerHandler) ReleaseStore(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.svc.ReleaseStore(ctx, m)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
