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

// InventoryRepo stores the region-based store inventories.
type InventoryRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewInventoryRepo(db *sql.DB) *InventoryRepo {
	return &InventoryRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *InventoryRepo) Create(ctx context.Context, inv *model.StoreInventory) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := r.now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO store_inventories (id, name, region, created_at, updated_at) VALUES (?,?,?,?,?)",
		inv.ID, inv.Name, string(inv.Region), inv.CreatedAt, inv.UpdatedAt)
	return err
}

func (r *InventoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.StoreInventory, error) {
	var inv model.StoreInventory
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, region, created_at, updated_at FROM store_inventories WHERE id = ?", id).
		Scan(&inv.ID, &inv.Name, &inv.Region, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// List returns every inventory ordered by name.
func (r *InventoryRepo) List(ctx context.Context) ([]model.StoreInventory, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, region, created_at, updated_at FROM store_inventories ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.StoreInventory{}
	for rows.Next() {
		var inv model.StoreInventory
		if err := rows.Scan(&inv.ID, &inv.Name, &inv.Region, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *InventoryRepo) Update(ctx context.Context, inv *model.StoreInventory) error {
	inv.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx,
		"UPDATE store_inventories SET name = ?, region = ?, updated_at = ? WHERE id = ?",
		inv.Name, string(inv.Region), inv.UpdatedAt, inv.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an inventory unless items still reference it.
func (r *InventoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var iid uuid.UUID
		err := tx.QueryRowContext(ctx, "SELECT id FROM store_inventories WHERE id = ? FOR UPDATE", id).Scan(&iid)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var items int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE store_inventory_id = ?", id).Scan(&items); err != nil {
			return err
		}
		if items > 0 {
			return ErrInUse
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM store_inventories WHERE id = ?", id)
		return err
	})
}
