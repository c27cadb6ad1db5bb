package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// Order represents a placed customer order
type Order struct {
	gorm.Model
	OrderNumber         string      `json:"order_number"`
	CustomerName        string      `json:"customer_name"`
	CustomerPhone       string      `json:"customer_phone"`
	TotalAmount         float64     `json:"total_amount"`
	SpecialInstructions string      `json:"special_instructions"`
	Status              string      `json:"status"`
	Action              string      `json:"action"`
	OrderTime           time.Time   `json:"order_time"`
	CompletedAt         *time.Time  `json:"completed_at"`
	Items               []OrderItem `gorm:"foreignkey:OrderID" json:"order_items"`
}

// OrderItem represents a line in an order. UnitPrice is the price at the time
// the line was added; displayed totals are recomputed against the live catalog.
type OrderItem struct {
	gorm.Model
	OrderID         uint    `json:"order_id"`
	InventoryItemID *uint   `json:"inventory_item_id"`
	ItemName        string  `json:"item_name"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	TotalPrice      float64 `json:"total_price"`
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
)

// Action values distinguish in-flight orders from delivered ones.
const (
	ActionInProgress = "In Progress"
	ActionDelivered  = "Mark as Delivered"
)
