// Package service implements the resource operations and their ownership
// rules.  Services depend on the small interfaces below; the MySQL and Redis
// repositories satisfy them in production and the inmem package in tests.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/store-inventory/internal/auth"
	"github.com/iliyamo/store-inventory/internal/model"
)

// ManagerRepository is the credential store.
type ManagerRepository interface {
	Create(ctx context.Context, m *model.Manager) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Manager, error)
	GetByEmail(ctx context.Context, email string) (*model.Manager, error)
	UpdateProfile(ctx context.Context, m *model.Manager) error
	AssignStore(ctx context.Context, managerID, storeID uuid.UUID) error
	ReleaseStore(ctx context.Context, managerID uuid.UUID) error
}

type StoreRepository interface {
	Create(ctx context.Context, s *model.Store) error
	CreateAndAssign(ctx context.Context, s *model.Store, managerID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	Update(ctx context.Context, s *model.Store) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type InventoryRepository interface {
	Create(ctx context.Context, inv *model.StoreInventory) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.StoreInventory, error)
	List(ctx context.Context) ([]model.StoreInventory, error)
	Update(ctx context.Context, inv *model.StoreInventory) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ItemRepository interface {
	Create(ctx context.Context, it *model.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, f model.ItemFilter) ([]model.Item, error)
	Update(ctx context.Context, it *model.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TokenIssuer mints access tokens.  *auth.TokenManager implements it.
type TokenIssuer interface {
	Issue(claims auth.Claims, ttl time.Duration) (string, auth.Claims, error)
}
