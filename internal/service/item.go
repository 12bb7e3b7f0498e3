package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/store-inventory/internal/apperr"
	"github.com/iliyamo/store-inventory/internal/model"
	"github.com/iliyamo/store-inventory/internal/queue"
	"github.com/iliyamo/store-inventory/internal/repository"
)

const msgItemNotOwned = "item does not belong to manager's store"

// ItemInput is the payload for creating an item.  StoreID is optional and,
// when given, must be the manager's own store.
type ItemInput struct {
	Name             string
	Category         model.Category
	PriceUSD         float64
	InStock          *bool
	StoreID          *uuid.UUID
	StoreInventoryID *uuid.UUID
}

// ItemPatch holds optional item changes.  ClearStoreInventory removes the
// classification; StoreInventoryID sets it.
type ItemPatch struct {
	Name                *string
	Category            *model.Category
	PriceUSD            *float64
	InStock             *bool
	StoreInventoryID    *uuid.UUID
	ClearStoreInventory bool
}

// ItemService manages items.  Every operation requires the manager to have
// a store and the item to belong to it.
type ItemService struct {
	items       ItemRepository
	inventories InventoryRepository
	events      emitter
	log         *zap.Logger
}

func NewItemService(items ItemRepository, inventories InventoryRepository, pub queue.Publisher, log *zap.Logger) *ItemService {
	log = log.Named("items")
	return &ItemService{items: items, inventories: inventories, events: newEmitter(pub, log), log: log}
}

func requireStore(m *model.Manager) (uuid.UUID, error) {
	if !m.HasStore() {
		return uuid.Nil, apperr.Forbidden(msgNoStore)
	}
	return *m.StoreID, nil
}

// owned loads an item and checks it belongs to the manager's store.  An
// unknown id is NotFound; another store's item is Forbidden.
func (s *ItemService) owned(ctx context.Context, m *model.Manager, id uuid.UUID) (*model.Item, error) {
	storeID, err := requireStore(m)
	if err != nil {
		return nil, err
	}
	it, err := s.items.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("item not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "get item")
	}
	if it.StoreID != storeID {
		return nil, apperr.Forbidden(msgItemNotOwned)
	}
	return it, nil
}

func (s *ItemService) checkInventory(ctx context.Context, id uuid.UUID) error {
	_, err := s.inventories.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("store inventory not found")
	}
	if err != nil {
		return apperr.Internal(err, "get inventory")
	}
	return nil
}

func validItem(it *model.Item) error {
	if !it.Category.Valid() {
		return apperr.Invalid("category is not a known item category")
	}
	if it.PriceUSD < 0 {
		return apperr.Invalid("price_usd must not be negative")
	}
	return nil
}

func (s *ItemService) List(ctx context.Context, m *model.Manager, f model.ItemFilter) ([]model.Item, error) {
	storeID, err := requireStore(m)
	if err != nil {
		return nil, err
	}
	if f.Category != nil && !f.Category.Valid() {
		return nil, apperr.Invalid("category is not a known item category")
	}
	out, err := s.items.ListByStore(ctx, storeID, f)
	if err != nil {
		return nil, apperr.Internal(err, "list items")
	}
	return out, nil
}

func (s *ItemService) Get(ctx context.Context, m *model.Manager, id uuid.UUID) (*model.Item, error) {
	return s.owned(ctx, m, id)
}

func (s *ItemService) Create(ctx context.Context, m *model.Manager, in ItemInput) (*model.Item, error) {
	storeID, err := requireStore(m)
	if err != nil {
		return nil, err
	}
	if in.StoreID != nil && *in.StoreID != storeID {
		return nil, apperr.Forbidden(msgItemNotOwned)
	}
	name, err := validName("name", in.Name)
	if err != nil {
		return nil, err
	}
	it := &model.Item{
		Name:             name,
		Category:         in.Category,
		PriceUSD:         in.PriceUSD,
		InStock:          true,
		StoreID:          storeID,
		StoreInventoryID: in.StoreInventoryID,
	}
	if in.InStock != nil {
		it.InStock = *in.InStock
	}
	if err := validItem(it); err != nil {
		return nil, err
	}
	if it.StoreInventoryID != nil {
		if err := s.checkInventory(ctx, *it.StoreInventoryID); err != nil {
			return nil, err
		}
	}
	if err := s.items.Create(ctx, it); err != nil {
		if errors.Is(err, repository.ErrBadReference) {
			return nil, apperr.NotFound("store inventory not found")
		}
		return nil, apperr.Internal(err, "create item")
	}
	s.events.emit(ctx, queue.NewEvent(queue.ItemCreated, m.ID, &storeID, it.ID.String()))
	return it, nil
}

func (s *ItemService) Update(ctx context.Context, m *model.Manager, id uuid.UUID, p ItemPatch) (*model.Item, error) {
	it, err := s.owned(ctx, m, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		if it.Name, err = validName("name", *p.Name); err != nil {
			return nil, err
		}
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.PriceUSD != nil {
		it.PriceUSD = *p.PriceUSD
	}
	if p.InStock != nil {
		it.InStock = *p.InStock
	}
	switch {
	case p.ClearStoreInventory:
		it.StoreInventoryID = nil
	case p.StoreInventoryID != nil:
		if err := s.checkInventory(ctx, *p.StoreInventoryID); err != nil {
			return nil, err
		}
		it.StoreInventoryID = p.StoreInventoryID
	}
	if err := validItem(it); err != nil {
		return nil, err
	}
	if err := s.items.Update(ctx, it); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("item not found")
		case errors.Is(err, repository.ErrBadReference):
			return nil, apperr.NotFound("store inventory not found")
		}
		return nil, apperr.Internal(err, "update item")
	}
	s.events.emit(ctx, queue.NewEvent(queue.ItemUpdated, m.ID, &it.StoreID, it.ID.String()))
	return it, nil
}

func (s *ItemService) Delete(ctx context.Context, m *model.Manager, id uuid.UUID) error {
	it, err := s.owned(ctx, m, id)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, it.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("item not found")
		}
		return apperr.Internal(err, "delete item")
	}
	s.events.emit(ctx, queue.NewEvent(queue.ItemDeleted, m.ID, &it.StoreID, it.ID.String()))
	return nil
}
