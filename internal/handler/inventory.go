package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-inventory/internal/model"
	"github.com/iliyamo/store-inventory/internal/service"
)

// InventoryHandler serves /v1/store-inventories.
type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

type inventoryRequest struct {
	Name   string       `json:"name"`
	Region model.Region `json:"region"`
}

type inventoryPatchRequest struct {
	Name   *string       `json:"name"`
	Region *model.Region `json:"region"`
}

func (h *InventoryHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.svc.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	inv, err := h.svc.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InventoryHandler) Create(c echo.Context) error {
	var req inventoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	inv, err := h.svc.Create(ctx, service.InventoryInput{Name: req.Name, Region: req.Region})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *InventoryHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req inventoryPatchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	inv, err := h.svc.Update(ctx, id, service.InventoryPatch{Name: req.Name, Region: req.Region})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InventoryHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
