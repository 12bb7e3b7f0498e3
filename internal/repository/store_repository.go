package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/store-inventory/internal/database"
	"github.com/iliyamo/store-inventory/internal/model"
)

// StoreRepo encapsulates all database queries related to stores.
type StoreRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const qInsertStore = "INSERT INTO stores (id, name, location, created_at, updated_at) VALUES (?,?,?,?,?)"

func (r *StoreRepo) prepare(s *model.Store) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := r.now()
	s.CreatedAt, s.UpdatedAt = now, now
}

// Create inserts a store without assigning it to anyone.
func (r *StoreRepo) Create(ctx context.Context, s *model.Store) error {
	r.prepare(s)
	_, err := r.db.ExecContext(ctx, qInsertStore, s.ID, s.Name, s.Location, s.CreatedAt, s.UpdatedAt)
	return err
}

// CreateAndAssign inserts a store and links it to the manager in one
// transaction.  ErrAlreadyAssigned is returned, and nothing is written,
// when the manager already has a store.
func (r *StoreRepo) CreateAndAssign(ctx context.Context, s *model.Store, managerID uuid.UUID) error {
	r.prepare(s)
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var current uuid.NullUUID
		err := tx.QueryRowContext(ctx, "SELECT store_id FROM managers WHERE id = ? FOR UPDATE", managerID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if current.Valid {
			return ErrAlreadyAssigned
		}
		if _, err := tx.ExecContext(ctx, qInsertStore, s.ID, s.Name, s.Location, s.CreatedAt, s.UpdatedAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE managers SET store_id = ?, updated_at = ? WHERE id = ?", s.ID, s.UpdatedAt, managerID); err != nil {
			if isDuplicate(err) {
				return ErrStoreTaken
			}
			return err
		}
		return nil
	})
}

// GetByID fetches a store by its id.
func (r *StoreRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var s model.Store
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, location, created_at, updated_at FROM stores WHERE id = ?", id).
		Scan(&s.ID, &s.Name, &s.Location, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Update persists name and location.
func (r *StoreRepo) Update(ctx context.Context, s *model.Store) error {
	s.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE stores SET name = ?, location = ?, updated_at = ? WHERE id = ?",
		s.Name, s.Location, s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a store.  It refuses with ErrInUse while items belong to
// the store and clears the manager link in the same transaction.
func (r *StoreRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var sid uuid.UUID
		err := tx.QueryRowContext(ctx, "SELECT id FROM stores WHERE id = ? FOR UPDATE", id).Scan(&sid)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var items int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE store_id = ?", id).Scan(&items); err != nil {
			return err
		}
		if items > 0 {
			return ErrInUse
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE managers SET store_id = NULL, updated_at = ? WHERE store_id = ?", r.now(), id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM stores WHERE id = ?", id); err != nil {
			return err
		}
		return nil
	})
}
