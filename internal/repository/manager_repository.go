package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/store-inventory/internal/database"
	"github.com/iliyamo/store-inventory/internal/model"
)

const managerColumns = "id, name, email, password_hash, store_id, created_at, updated_at"

// ManagerRepo is the credential store: managers, their password hashes and
// their store assignment.
type ManagerRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewManagerRepo(db *sql.DB) *ManagerRepo {
	return &ManagerRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// normalizeEmail lower-cases and trims so lookups are case-insensitive.
func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

type rowScanner interface{ Scan(dest ...any) error }

func scanManager(row rowScanner) (*model.Manager, error) {
	var (
		m       model.Manager
		storeID uuid.NullUUID
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &storeID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.StoreID = idPtr(storeID)
	return &m, nil
}

// Create inserts m.  The id is generated when unset and the timestamps are
// filled in.  A duplicate email yields ErrEmailExists.
func (r *ManagerRepo) Create(ctx context.Context, m *model.Manager) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Email = normalizeEmail(m.Email)
	now := r.now()
	m.CreatedAt, m.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO managers (id, name, email, password_hash, store_id, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		m.ID, m.Name, m.Email, m.PasswordHash, nullID(m.StoreID), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByID fetches a manager by id.
func (r *ManagerRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Manager, error) {
	return scanManager(r.db.QueryRowContext(ctx,
		"SELECT "+managerColumns+" FROM managers WHERE id = ? LIMIT 1", id))
}

// GetByEmail fetches a manager by normalized email.
func (r *ManagerRepo) GetByEmail(ctx context.Context, email string) (*model.Manager, error) {
	return scanManager(r.db.QueryRowContext(ctx,
		"SELECT "+managerColumns+" FROM managers WHERE email = ? LIMIT 1", normalizeEmail(email)))
}

// UpdateProfile persists name, email and password hash.  The store link is
// only changed through AssignStore and ReleaseStore.
func (r *ManagerRepo) UpdateProfile(ctx context.Context, m *model.Manager) error {
	m.Email = normalizeEmail(m.Email)
	m.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE managers SET name = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?",
		m.Name, m.Email, m.PasswordHash, m.UpdatedAt, m.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignStore links the manager to an existing store.  The manager row,
// the store row and any current holder of the store are locked, so of two
// managers racing for the same store exactly one wins; the loser gets
// ErrStoreTaken (from the holder check or from the unique index).
func (r *ManagerRepo) AssignStore(ctx context.Context, managerID, storeID uuid.UUID) error {
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

		var sid uuid.UUID
		err = tx.QueryRowContext(ctx, "SELECT id FROM stores WHERE id = ? FOR UPDATE", storeID).Scan(&sid)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var holder uuid.UUID
		err = tx.QueryRowContext(ctx, "SELECT id FROM managers WHERE store_id = ? FOR UPDATE", storeID).Scan(&holder)
		switch {
		case err == nil:
			return ErrStoreTaken
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE managers SET store_id = ?, updated_at = ? WHERE id = ?",
			storeID, r.now(), managerID); err != nil {
			if isDuplicate(err) {
				return ErrStoreTaken
			}
			return err
		}
		return nil
	})
}

// ReleaseStore clears the manager's store link.  Releasing when no store
// is assigned is a no-op.
func (r *ManagerRepo) ReleaseStore(ctx context.Context, managerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE managers SET store_id = NULL, updated_at = ? WHERE id = ?", r.now(), managerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
