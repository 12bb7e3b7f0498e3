package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/store-inventory/internal/model"
)

const itemColumns = "id, name, category, price_usd, in_stock, store_id, store_inventory_id, created_at, updated_at"

// ItemRepo encapsulates all database queries related to items.  Ownership
// is enforced by the caller; the repository only filters by store where a
// store id is given.
type ItemRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func scanItem(row rowScanner) (*model.Item, error) {
	var (
		it  model.Item
		inv uuid.NullUUID
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Category, &it.PriceUSD, &it.InStock, &it.StoreID, &inv, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	it.StoreInventoryID = idPtr(inv)
	return &it, nil
}

// Create inserts an item.  A dangling store or inventory id yields
// ErrBadReference.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	now := r.now()
	it.CreatedAt, it.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO items ("+itemColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		it.ID, it.Name, string(it.Category), it.PriceUSD, it.InStock, it.StoreID, nullID(it.StoreInventoryID), it.CreatedAt, it.UpdatedAt)
	if err != nil {
		if isMissingRef(err) {
			return ErrBadReference
		}
		return err
	}
	return nil
}

func (r *ItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	return scanItem(r.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id))
}

// ListByStore returns the store's items narrowed by f, ordered by name.
func (r *ItemRepo) ListByStore(ctx context.Context, storeID uuid.UUID, f model.ItemFilter) ([]model.Item, error) {
	var (
		where = []string{"store_id = ?"}
		args  = []any{storeID}
	)
	if f.Category != nil {
		where = append(where, "category = ?")
		args = append(args, string(*f.Category))
	}
	if f.InStock != nil {
		where = append(where, "in_stock = ?")
		args = append(args, *f.InStock)
	}
	if f.StoreInventoryID != nil {
		where = append(where, "store_inventory_id = ?")
		args = append(args, *f.StoreInventoryID)
	}
	q := "SELECT " + itemColumns + " FROM items WHERE " + strings.Join(where, " AND ") + " ORDER BY name, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

// Update persists every mutable column.  The owning store never changes.
func (r *ItemRepo) Update(ctx context.Context, it *model.Item) error {
	it.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE items SET name = ?, category = ?, price_usd = ?, in_stock = ?, store_inventory_id = ?, updated_at = ? WHERE id = ?",
		it.Name, string(it.Category), it.PriceUSD, it.InStock, nullID(it.StoreInventoryID), it.UpdatedAt, it.ID)
	if err != nil {
		if isMissingRef(err) {
			return ErrBadReference
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
