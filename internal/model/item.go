package model

import (
	"time"

	"github.com/google/uuid"
)

// Category is the enumerated item category.
type Category string

const (
	CategoryGrocery         Category = "Grocery"
	CategoryHousehold       Category = "Household"
	CategoryElectronics     Category = "Electronics"
	CategoryStationery      Category = "Stationery"
	CategoryPersonalCare    Category = "Personal Care"
	CategoryApparel         Category = "Apparel"
	CategoryHomeImprovement Category = "Home Improvement"
	CategoryPet             Category = "Pet"
)

// Categories lists every accepted category.
var Categories = []Category{
	CategoryGrocery,
	CategoryHousehold,
	CategoryElectronics,
	CategoryStationery,
	CategoryPersonalCare,
	CategoryApparel,
	CategoryHomeImprovement,
	CategoryPet,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Item is a stock-keeping record owned by exactly one store and optionally
// classified by a store inventory.
//
// Fields:
//  ID               – primary key (UUID).
//  Name             – item name.
//  Category         – enumerated category.
//  PriceUSD         – unit price, never negative.
//  InStock          – availability flag.
//  StoreID          – owning store; every manager access is checked against it.
//  StoreInventoryID – optional classification.
type Item struct {
	ID               uuid.UUID  `json:"id"`                 // items.id
	Name             string     `json:"name"`               // items.name
	Category         Category   `json:"category"`           // items.category
	PriceUSD         float64    `json:"price_usd"`          // items.price_usd
	InStock          bool       `json:"in_stock"`           // items.in_stock
	StoreID          uuid.UUID  `json:"store_id"`           // items.store_id
	StoreInventoryID *uuid.UUID `json:"store_inventory_id"` // items.store_inventory_id (nullable)
	CreatedAt        time.Time  `json:"created_at"`         // items.created_at
	UpdatedAt        time.Time  `json:"updated_at"`         // items.updated_at
}

// ItemFilter narrows item listings within a single store.
type ItemFilter struct {
	Category         *Category
	InStock          *bool
	StoreInventoryID *uuid.UUID
}
