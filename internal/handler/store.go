package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-inventory/internal/service"
)

// StoreHandler serves /v1/stores.  Ownership is decided by the service.
type StoreHandler struct {
	svc *service.StoreService
}

func NewStoreHandler(svc *service.StoreService) *StoreHandler {
	return &StoreHandler{svc: svc}
}

type storeRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type storePatchRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

// List returns the manager's store as a list of zero or one element.
func (h *StoreHandler) List(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.svc.List(ctx, m)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *StoreHandler) Get(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	s, err := h.svc.Get(ctx, m, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Create handles POST /v1/stores.  With ?assign_to_self=true the store is
// assigned to the caller in the same transaction.
func (h *StoreHandler) Create(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	assign := false
	if v := c.QueryParam("assign_to_self"); v != "" {
		if assign, err = strconv.ParseBool(v); err != nil {
			return badRequest(c, "invalid assign_to_self")
		}
	}
	var req storeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	s, err := h.svc.Create(ctx, m, service.StoreInput{Name: req.Name, Location: req.Location}, assign)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *StoreHandler) Update(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req storePatchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	s, err := h.svc.Update(ctx, m, id, service.StorePatch{Name: req.Name, Location: req.Location})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *StoreHandler) Delete(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, m, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
