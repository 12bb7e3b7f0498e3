// Package inmem provides mutex guarded in-memory repositories with the same
// semantics and sentinels as the MySQL ones.  All views of one DB share a
// lock, so cross-table rules (a store with items cannot be deleted, a store
// has one manager) hold under concurrency.
package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/store-inventory/internal/model"
	"github.com/iliyamo/store-inventory/internal/repository"
)

// DB holds every table.
type DB struct {
	mu          sync.Mutex
	managers    map[uuid.UUID]model.Manager
	stores      map[uuid.UUID]model.Store
	inventories map[uuid.UUID]model.StoreInventory
	items       map[uuid.UUID]model.Item
	now         func() time.Time
}

func New() *DB {
	return &DB{
		managers:    map[uuid.UUID]model.Manager{},
		stores:      map[uuid.UUID]model.Store{},
		inventories: map[uuid.UUID]model.StoreInventory{},
		items:       map[uuid.UUID]model.Item{},
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (db *DB) Managers() *Managers       { return &Managers{db} }
func (db *DB) Stores() *Stores           { return &Stores{db} }
func (db *DB) Inventories() *Inventories { return &Inventories{db} }
func (db *DB) Items() *Items             { return &Items{db} }

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

// Managers is the in-memory credential store.
type Managers struct{ db *DB }

func (r *Managers) Create(_ context.Context, m *model.Manager) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	for _, other := range r.db.managers {
		if other.Email == m.Email {
			return repository.ErrEmailExists
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := r.db.now()
	m.CreatedAt, m.UpdatedAt = now, now
	c := *m
	c.StoreID = copyID(m.StoreID)
	r.db.managers[m.ID] = c
	return nil
}

func (r *Managers) GetByID(_ context.Context, id uuid.UUID) (*model.Manager, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.managers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.StoreID = copyID(m.StoreID)
	return &m, nil
}

func (r *Managers) GetByEmail(_ context.Context, email string) (*model.Manager, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, m := range r.db.managers {
		if m.Email == email {
			m.StoreID = copyID(m.StoreID)
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Managers) UpdateProfile(_ context.Context, m *model.Manager) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.managers[m.ID]
	if !ok {
		return repository.ErrNotFound
	}
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	for id, other := range r.db.managers {
		if id != m.ID && other.Email == m.Email {
			return repository.ErrEmailExists
		}
	}
	cur.Name, cur.Email, cur.PasswordHash = m.Name, m.Email, m.PasswordHash
	cur.UpdatedAt = r.db.now()
	m.UpdatedAt = cur.UpdatedAt
	r.db.managers[m.ID] = cur
	return nil
}

func (r *Managers) AssignStore(_ context.Context, managerID, storeID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.managers[managerID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.StoreID != nil {
		return repository.ErrAlreadyAssigned
	}
	if _, ok := r.db.stores[storeID]; !ok {
		return repository.ErrNotFound
	}
	for _, other := range r.db.managers {
		if other.StoreID != nil && *other.StoreID == storeID {
			return repository.ErrStoreTaken
		}
	}
	m.StoreID = &storeID
	m.UpdatedAt = r.db.now()
	r.db.managers[managerID] = m
	return nil
}

func (r *Managers) ReleaseStore(_ context.Context, managerID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.managers[managerID]
	if !ok {
		return repository.ErrNotFound
	}
	m.StoreID = nil
	m.UpdatedAt = r.db.now()
	r.db.managers[managerID] = m
	return nil
}

// Stores is the in-memory store table.
type Stores struct{ db *DB }

func (r *Stores) insert(s *model.Store) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := r.db.now()
	s.CreatedAt, s.UpdatedAt = now, now
	r.db.stores[s.ID] = *s
}

func (r *Stores) Create(_ context.Context, s *model.Store) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.insert(s)
	return nil
}

func (r *Stores) CreateAndAssign(_ context.Context, s *model.Store, managerID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.managers[managerID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.StoreID != nil {
		return repository.ErrAlreadyAssigned
	}
	r.insert(s)
	id := s.ID
	m.StoreID = &id
	r.db.managers[managerID] = m
	return nil
}

func (r *Stores) GetByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.stores[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *Stores) Update(_ context.Context, s *model.Store) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.stores[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.Location, cur.UpdatedAt = s.Name, s.Location, r.db.now()
	s.UpdatedAt = cur.UpdatedAt
	r.db.stores[s.ID] = cur
	return nil
}

func (r *Stores) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.stores[id]; !ok {
		return repository.ErrNotFound
	}
	for _, it := range r.db.items {
		if it.StoreID == id {
			return repository.ErrInUse
		}
	}
	for mid, m := range r.db.managers {
		if m.StoreID != nil && *m.StoreID == id {
			m.StoreID = nil
			r.db.managers[mid] = m
		}
	}
	delete(r.db.stores, id)
	return nil
}

// Inventories is the in-memory store inventory table.
type Inventories struct{ db *DB }

func (r *Inventories) Create(_ context.Context, inv *model.StoreInventory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := r.db.now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	r.db.inventories[inv.ID] = *inv
	return nil
}

func (r *Inventories) GetByID(_ context.Context, id uuid.UUID) (*model.StoreInventory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	inv, ok := r.db.inventories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

func (r *Inventories) List(context.Context) ([]model.StoreInventory, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.StoreInventory, 0, len(r.db.inventories))
	for _, inv := range r.db.inventories {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *Inventories) Update(_ context.Context, inv *model.StoreInventory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.inventories[inv.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.Region, cur.UpdatedAt = inv.Name, inv.Region, r.db.now()
	inv.UpdatedAt = cur.UpdatedAt
	r.db.inventories[inv.ID] = cur
	return nil
}

func (r *Inventories) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.inventories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, it := range r.db.items {
		if it.StoreInventoryID != nil && *it.StoreInventoryID == id {
			return repository.ErrInUse
		}
	}
	delete(r.db.inventories, id)
	return nil
}

// Items is the in-memory item table.
type Items struct{ db *DB }

func (r *Items) refsOK(it *model.Item) bool {
	if _, ok := r.db.stores[it.StoreID]; !ok {
		return false
	}
	if it.StoreInventoryID != nil {
		if _, ok := r.db.inventories[*it.StoreInventoryID]; !ok {
			return false
		}
	}
	return true
}

func (r *Items) Create(_ context.Context, it *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if !r.refsOK(it) {
		return repository.ErrBadReference
	}
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	now := r.db.now()
	it.CreatedAt, it.UpdatedAt = now, now
	c := *it
	c.StoreInventoryID = copyID(it.StoreInventoryID)
	r.db.items[it.ID] = c
	return nil
}

func (r *Items) GetByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	it, ok := r.db.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	it.StoreInventoryID = copyID(it.StoreInventoryID)
	return &it, nil
}

func (r *Items) ListByStore(_ context.Context, storeID uuid.UUID, f model.ItemFilter) ([]model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.Item{}
	for _, it := range r.db.items {
		switch {
		case it.StoreID != storeID:
			continue
		case f.Category != nil && it.Category != *f.Category:
			continue
		case f.InStock != nil && it.InStock != *f.InStock:
			continue
		case f.StoreInventoryID != nil && (it.StoreInventoryID == nil || *it.StoreInventoryID != *f.StoreInventoryID):
			continue
		}
		it.StoreInventoryID = copyID(it.StoreInventoryID)
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *Items) Update(_ context.Context, it *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.items[it.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !r.refsOK(it) {
		return repository.ErrBadReference
	}
	it.StoreID = cur.StoreID
	it.CreatedAt = cur.CreatedAt
	it.UpdatedAt = r.db.now()
	c := *it
	c.StoreInventoryID = copyID(it.StoreInventoryID)
	r.db.items[it.ID] = c
	return nil
}

func (r *Items) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.items, id)
	return nil
}
