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

const msgNotStoreOwner = "manager does not own this store"

// StoreInput is the payload for creating a store.
type StoreInput struct {
	Name     string
	Location string
}

// StorePatch holds optional store changes.
type StorePatch struct {
	Name     *string
	Location *string
}

// StoreService manages the store a manager owns.  Ownership is checked
// before existence: any id other than the manager's own store is refused
// with Forbidden, so another tenant's store is never revealed.
type StoreService struct {
	stores StoreRepository
	events emitter
	log    *zap.Logger
}

func NewStoreService(stores StoreRepository, pub queue.Publisher, log *zap.Logger) *StoreService {
	log = log.Named("stores")
	return &StoreService{stores: stores, events: newEmitter(pub, log), log: log}
}

func (s *StoreService) authorize(m *model.Manager, id uuid.UUID) error {
	if !m.Owns(id) {
		return apperr.Forbidden(msgNotStoreOwner)
	}
	return nil
}

// List returns the manager's store as a zero or one element slice.
func (s *StoreService) List(ctx context.Context, m *model.Manager) ([]model.Store, error) {
	out := []model.Store{}
	if !m.HasStore() {
		return out, nil
	}
	st, err := s.stores.GetByID(ctx, *m.StoreID)
	if errors.Is(err, repository.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "get store")
	}
	return append(out, *st), nil
}

func (s *StoreService) Get(ctx context.Context, m *model.Manager, id uuid.UUID) (*model.Store, error) {
	if err := s.authorize(m, id); err != nil {
		return nil, err
	}
	st, err := s.stores.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("store not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "get store")
	}
	return st, nil
}

// Create adds a store.  With assignToSelf the store is linked to the
// manager in the same transaction, which fails with Conflict when the
// manager already has one.
func (s *StoreService) Create(ctx context.Context, m *model.Manager, in StoreInput, assignToSelf bool) (*model.Store, error) {
	name, err := validName("name", in.Name)
	if err != nil {
		return nil, err
	}
	loc, err := validLocation(in.Location)
	if err != nil {
		return nil, err
	}
	st := &model.Store{Name: name, Location: loc}

	if assignToSelf {
		if m.HasStore() {
			return nil, apperr.Conflict(msgAlreadyAssigned)
		}
		if err := s.stores.CreateAndAssign(ctx, st, m.ID); err != nil {
			if errors.Is(err, repository.ErrAlreadyAssigned) || errors.Is(err, repository.ErrStoreTaken) {
				return nil, apperr.Conflict(msgAlreadyAssigned)
			}
			return nil, apperr.Internal(err, "create store")
		}
	} else if err := s.stores.Create(ctx, st); err != nil {
		return nil, apperr.Internal(err, "create store")
	}

	s.log.Info("store created", zap.String("store_id", st.ID.String()), zap.String("manager_id", m.ID.String()), zap.Bool("assigned", assignToSelf))
	var owner *uuid.UUID
	if assignToSelf {
		owner = &st.ID
	}
	s.events.emit(ctx, queue.NewEvent(queue.StoreCreated, m.ID, owner, st.ID.String()))
	return st, nil
}

func (s *StoreService) Update(ctx context.Context, m *model.Manager, id uuid.UUID, p StorePatch) (*model.Store, error) {
	st, err := s.Get(ctx, m, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		if st.Name, err = validName("name", *p.Name); err != nil {
			return nil, err
		}
	}
	if p.Location != nil {
		if st.Location, err = validLocation(*p.Location); err != nil {
			return nil, err
		}
	}
	if err := s.stores.Update(ctx, st); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("store not found")
		}
		return nil, apperr.Internal(err, "update store")
	}
	return st, nil
}

// Delete removes the manager's store and clears the assignment.  Stores
// that still hold items are refused with Conflict.
func (s *StoreService) Delete(ctx context.Context, m *model.Manager, id uuid.UUID) error {
	if err := s.authorize(m, id); err != nil {
		return err
	}
	if err := s.stores.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrInUse):
			return apperr.Conflict("cannot delete store with existing items")
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound("store not found")
		}
		return apperr.Internal(err, "delete store")
	}
	s.log.Info("store deleted", zap.String("store_id", id.String()), zap.String("manager_id", m.ID.String()))
	s.events.emit(ctx, queue.NewEvent(queue.StoreDeleted, m.ID, &id, id.String()))
	return nil
}
