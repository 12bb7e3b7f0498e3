package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-inventory/internal/model"
	"github.com/iliyamo/store-inventory/internal/service"
)

// ItemHandler serves /v1/items, always scoped to the manager's store.
type ItemHandler struct {
	svc *service.ItemService
}

func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

type itemRequest struct {
	Name             string         `json:"name"`
	Category         model.Category `json:"category"`
	PriceUSD         float64        `json:"price_usd"`
	InStock          *bool          `json:"in_stock"`
	StoreID          *uuid.UUID     `json:"store_id"`
	StoreInventoryID *uuid.UUID     `json:"store_inventory_id"`
}

// optionalID tells an absent field apart from an explicit null.
type optionalID struct {
	Set bool
	ID  *uuid.UUID
}

func (o *optionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.ID = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}

type itemPatchRequest struct {
	Name             *string         `json:"name"`
	Category         *model.Category `json:"category"`
	PriceUSD         *float64        `json:"price_usd"`
	InStock          *bool           `json:"in_stock"`
	StoreInventoryID optionalID      `json:"store_inventory_id"`
}

func (r itemPatchRequest) patch() service.ItemPatch {
	p := service.ItemPatch{Name: r.Name, Category: r.Category, PriceUSD: r.PriceUSD, InStock: r.InStock}
	if r.StoreInventoryID.Set {
		if r.StoreInventoryID.ID == nil {
			p.ClearStoreInventory = true
		} else {
			p.StoreInventoryID = r.StoreInventoryID.ID
		}
	}
	return p
}

// itemFilter reads category, in_stock and store_inventory_id.
func itemFilter(c echo.Context) (model.ItemFilter, string) {
	var f model.ItemFilter
	if v := c.QueryParam("category"); v != "" {
		cat := model.Category(v)
		if !cat.Valid() {
			return f, "invalid category"
		}
		f.Category = &cat
	}
	if v := c.QueryParam("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, "invalid in_stock"
		}
		f.InStock = &b
	}
	if v := c.QueryParam("store_inventory_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, "invalid store_inventory_id"
		}
		f.StoreInventoryID = &id
	}
	return f, ""
}

func (h *ItemHandler) List(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	f, msg := itemFilter(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.svc.List(ctx, m, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ItemHandler) Get(c echo.Context) error {
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

	it, err := h.svc.Get(ctx, m, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *ItemHandler) Create(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	it, err := h.svc.Create(ctx, m, service.ItemInput{
		Name:             req.Name,
		Category:         req.Category,
		PriceUSD:         req.PriceUSD,
		InStock:          req.InStock,
		StoreID:          req.StoreID,
		StoreInventoryID: req.StoreInventoryID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, it)
}

func (h *ItemHandler) Update(c echo.Context) error {
	m, err := currentManager(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req itemPatchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	it, err := h.svc.Update(ctx, m, id, req.patch())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *ItemHandler) Delete(c echo.Context) error {
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
