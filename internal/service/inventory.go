package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/store-inventory/internal/apperr"
	"github.com/iliyamo/store-inventory/internal/model"
	"github.com/iliyamo/store-inventory/internal/repository"
)

// InventoryInput is the payload for creating a store inventory.
type InventoryInput struct {
	Name   string
	Region model.Region
}

// InventoryPatch holds optional inventory changes.
type InventoryPatch struct {
	Name   *string
	Region *model.Region
}

// InventoryService manages store inventories.  Inventories are shared
// classification data, so any authenticated manager may use them.
type InventoryService struct {
	inventories InventoryRepository
	log         *zap.Logger
}

func NewInventoryService(inventories InventoryRepository, log *zap.Logger) *InventoryService {
	return &InventoryService{inventories: inventories, log: log.Named("inventories")}
}

func validRegion(r model.Region) error {
	if !r.Valid() {
		return apperr.Invalid("region must be one of North, South, East, West, Central")
	}
	return nil
}

func (s *InventoryService) List(ctx context.Context) ([]model.StoreInventory, error) {
	out, err := s.inventories.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list inventories")
	}
	return out, nil
}

func (s *InventoryService) Get(ctx context.Context, id uuid.UUID) (*model.StoreInventory, error) {
	inv, err := s.inventories.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("store inventory not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "get inventory")
	}
	return inv, nil
}

func (s *InventoryService) Create(ctx context.Context, in InventoryInput) (*model.StoreInventory, error) {
	name, err := validName("name", in.Name)
	if err != nil {
		return nil, err
	}
	if err := validRegion(in.Region); err != nil {
		return nil, err
	}
	inv := &model.StoreInventory{Name: name, Region: in.Region}
	if err := s.inventories.Create(ctx, inv); err != nil {
		return nil, apperr.Internal(err, "create inventory")
	}
	return inv, nil
}

func (s *InventoryService) Update(ctx context.Context, id uuid.UUID, p InventoryPatch) (*model.StoreInventory, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		if inv.Name, err = validName("name", *p.Name); err != nil {
			return nil, err
		}
	}
	if p.Region != nil {
		if err := validRegion(*p.Region); err != nil {
			return nil, err
		}
		inv.Region = *p.Region
	}
	if err := s.inventories.Update(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("store inventory not found")
		}
		return nil, apperr.Internal(err, "update inventory")
	}
	return inv, nil
}

// Delete refuses with Conflict while items reference the inventory.
func (s *InventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.inventories.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrInUse):
			return apperr.Conflict("cannot delete store inventory with assigned items")
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound("store inventory not found")
		}
		return apperr.Internal(err, "delete inventory")
	}
	s.log.Info("store inventory deleted", zap.String("inventory_id", id.String()))
	return nil
}
