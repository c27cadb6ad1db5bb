package models

import (
	"github.com/jinzhu/gorm"
)

// DefaultMinStock is applied when an item is created without a low-stock
// threshold of its own.
const DefaultMinStock = 5

// InventoryItem represents a menu item in the restaurant inventory.
// ItemName is the canonical spelling used as the merge key everywhere else.
type InventoryItem struct {
	gorm.Model
	ItemName string  `gorm:"unique_index" json:"item_name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	MinStock int     `json:"min_stock"`
}

// Threshold returns the low-stock threshold, falling back to the default.
func (i InventoryItem) Threshold() int {
	if i.MinStock <= 0 {
		return DefaultMinStock
	}
	return i.MinStock
}

// IsOutOfStock reports whether the item has no stock left.
func (i InventoryItem) IsOutOfStock() bool {
	return i.Quantity == 0
}

// IsLowStock reports whether the item is in stock but below its threshold.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity > 0 && i.Quantity < i.Threshold()
}

// StockStatus represents the availability of an inventory item
type StockStatus string

const (
	StockAvailable  StockStatus = "Available"
	StockRestock    StockStatus = "Need to Restock"
	StockOutOfStock StockStatus = "Not Available"
)

// Status derives the stock status from quantity and threshold.
func (i InventoryItem) Status() StockStatus {
	switch {
	case i.Quantity == 0:
		return StockOutOfStock
	case i.Quantity < i.Threshold():
		return StockRestock
	default:
		return StockAvailable
	}
}
