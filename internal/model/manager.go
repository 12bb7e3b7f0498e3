package model

import (
	"time"

	"github.com/google/uuid"
)

// Manager represents a store manager account as stored in the
// `managers` table.  A manager authenticates with email and password
// and may be assigned to at most one store.  The password hash is never
// serialized.
//
// Fields:
//  ID           – primary key (UUID).
//  Name         – display name, also carried in issued tokens.
//  Email        – unique, lower-cased login identifier.
//  PasswordHash – bcrypt hash of the password.
//  StoreID      – assigned store (nil when unassigned); unique across managers.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Manager struct {
	ID           uuid.UUID  `json:"id"`         // managers.id
	Name         string     `json:"name"`       // managers.name
	Email        string     `json:"email"`      // managers.email
	PasswordHash string     `json:"-"`          // managers.password_hash
	StoreID      *uuid.UUID `json:"store_id"`   // managers.store_id (nullable, unique)
	CreatedAt    time.Time  `json:"created_at"` // managers.created_at
	UpdatedAt    time.Time  `json:"updated_at"` // managers.updated_at
}

// HasStore reports whether the manager is assigned to a store.
func (m *Manager) HasStore() bool {
	return m != nil && m.StoreID != nil && *m.StoreID != uuid.Nil
}

// Owns reports whether storeID is the manager's assigned store.
func (m *Manager) Owns(storeID uuid.UUID) bool {
	return m.HasStore() && *m.StoreID == storeID
}
