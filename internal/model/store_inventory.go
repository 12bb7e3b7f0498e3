package model

import (
	"time"

	"github.com/google/uuid"
)

// Region classifies store inventories geographically.
type Region string

const (
	RegionNorth   Region = "North"
	RegionSouth   Region = "South"
	RegionEast    Region = "East"
	RegionWest    Region = "West"
	RegionCentral Region = "Central"
)

// Regions lists every accepted region in display order.
var Regions = []Region{RegionNorth, RegionSouth, RegionEast, RegionWest, RegionCentral}

// Valid reports whether r is one of the known regions.
func (r Region) Valid() bool {
	for _, v := range Regions {
		if v == r {
			return true
		}
	}
	return false
}

// StoreInventory groups items by region.  Inventories are shared
// classification data; items reference them optionally.  An inventory
// cannot be deleted while any item references it.
type StoreInventory struct {
	ID        uuid.UUID `json:"id"`         // store_inventories.id
	Name      string    `json:"name"`       // store_inventories.name
	Region    Region    `json:"region"`     // store_inventories.region
	CreatedAt time.Time `json:"created_at"` // store_inventories.created_at
	UpdatedAt time.Time `json:"updated_at"` // store_inventories.updated_at
}
