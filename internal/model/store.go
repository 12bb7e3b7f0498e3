package model

import (
	"time"

	"github.com/google/uuid"
)

// Store represents a physical store.  A store is managed by zero or one
// manager (the back reference lives in managers.store_id) and owns zero or
// more items.  This struct corresponds to a row in the `stores` table.
type Store struct {
	ID        uuid.UUID `json:"id"`         // stores.id
	Name      string    `json:"name"`       // stores.name
	Location  string    `json:"location"`   // stores.location
	CreatedAt time.Time `json:"created_at"` // stores.created_at
	UpdatedAt time.Time `json:"updated_at"` // stores.updated_at
}
