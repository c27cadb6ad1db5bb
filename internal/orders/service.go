// Package orders implements order submission and lifecycle: creation from a
// frozen session ledger, status tracking, and delivery with stock deduction.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"khanabuddy/internal/catalog"
	"khanabuddy/internal/events"
	"khanabuddy/internal/models"
	"khanabuddy/internal/monitoring"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrMissingCustomer  = errors.New("customer name is required")
	ErrItemsUnavailable = errors.New("items unavailable")
	ErrAlreadyDelivered = errors.New("order already delivered")
	ErrInvalidStatus    = errors.New("invalid order status")
)

// LineInput is one requested order line.
type LineInput struct {
	ItemName  string  `json:"item_name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Availability is the result of checking one requested line against stock.
type Availability struct {
	ItemName          string `json:"item_name"`
	RequestedQuantity int    `json:"requested_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	IsAvailable       bool   `json:"is_available"`
}

// Summary aggregates today's order activity for the dashboard header.
type Summary struct {
	TotalOrders     int     `json:"total_orders"`
	PreparingOrders int     `json:"preparing_orders"`
	ReadyOrders     int     `json:"ready_orders"`
	DeliveredOrders int     `json:"delivered_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
}

// Service owns order persistence and lifecycle.
type Service struct {
	db        *gorm.DB
	inventory *catalog.Service
	bus       *events.Dispatcher
}

// NewService creates an order service.
func NewService(db *gorm.DB, inventory *catalog.Service, bus *events.Dispatcher) *Service {
	return &Service{db: db, inventory: inventory, bus: bus}
}

// CheckAvailability reports, for each requested line, whether enough stock
// exists right now. Unknown items come back with zero available.
func (s *Service) CheckAvailability(ctx context.Context, lines []LineInput) ([]Availability, error) {
	checks := make([]Availability, 0, len(lines))
	for _, line := range lines {
		check := Availability{
			ItemName:          line.ItemName,
			RequestedQuantity: line.Quantity,
		}

		var item models.InventoryItem
		err := s.db.Where("lower(item_name) = lower(?)", strings.TrimSpace(line.ItemName)).First(&item).Error
		if err == nil {
			check.AvailableQuantity = item.Quantity
			check.IsAvailable = item.Quantity >= line.Quantity
		} else if !gorm.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("check availability: %w", err)
		}

		checks = append(checks, check)
	}
	return checks, nil
}

// Unavailable returns the canonical names out of stock right now among the
// given names, consumed before allowing a delivery transition.
func (s *Service) Unavailable(ctx context.Context, names []string) ([]string, error) {
	var out []string
	for _, name := range names {
		var item models.InventoryItem
		err := s.db.Where("lower(item_name) = lower(?)", strings.TrimSpace(name)).First(&item).Error
		switch {
		case gorm.IsRecordNotFoundError(err):
			out = append(out, name)
		case err != nil:
			return nil, fmt.Errorf("availability lookup: %w", err)
		case item.Quantity == 0:
			out = append(out, name)
		}
	}
	return out, nil
}

// Create validates availability, persists the order with its items, and
// announces it. Unit prices default to the current catalog price when the
// caller leaves them zero.
func (s *Service) Create(ctx context.Context, customerName, phone, instructions string, lines []LineInput) (*models.Order, error) {
	if strings.TrimSpace(customerName) == "" {
		return nil, ErrMissingCustomer
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	checks, err := s.CheckAvailability(ctx, lines)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, check := range checks {
		if !check.IsAvailable {
			missing = append(missing, fmt.Sprintf("%s (requested: %d, available: %d)",
				check.ItemName, check.RequestedQuantity, check.AvailableQuantity))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemsUnavailable, strings.Join(missing, ", "))
	}

	order := models.Order{
		OrderNumber:         newOrderNumber(),
		CustomerName:        customerName,
		CustomerPhone:       phone,
		SpecialInstructions: instructions,
		Status:              string(models.OrderStatusPreparing),
		Action:              models.ActionInProgress,
		OrderTime:           time.Now(),
	}

	for _, line := range lines {
		unitPrice := line.UnitPrice
		var inventoryID *uint

		var item models.InventoryItem
		if err := s.db.Where("lower(item_name) = lower(?)", strings.TrimSpace(line.ItemName)).First(&item).Error; err == nil {
			id := item.ID
			inventoryID = &id
			if unitPrice == 0 {
				unitPrice = item.Price
			}
		}

		order.Items = append(order.Items, models.OrderItem{
			InventoryItemID: inventoryID,
			ItemName:        line.ItemName,
			Quantity:        line.Quantity,
			UnitPrice:       unitPrice,
			TotalPrice:      float64(line.Quantity) * unitPrice,
		})
		order.TotalAmount += float64(line.Quantity) * unitPrice
	}

	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	monitoring.OrdersCreatedTotal.Inc()
	s.bus.Publish(events.Event{Kind: events.KindOrderCreated, OrderID: order.ID})
	return &order, nil
}

// Active returns undelivered orders, newest first, with items preloaded.
func (s *Service) Active(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := s.db.Preload("Items").
		Where("action <> ?", models.ActionDelivered).
		Order("created_at desc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load active orders: %w", err)
	}
	return out, nil
}

// History returns delivered orders, most recently completed first.
func (s *Service) History(ctx context.Context, limit int) ([]models.Order, error) {
	var out []models.Order
	err := s.db.Preload("Items").
		Where("action = ?", models.ActionDelivered).
		Order("completed_at desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	return out, nil
}

// Get returns one order with items.
func (s *Service) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

// UpdateStatus moves an order between preparing and ready.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if status != string(models.OrderStatusPreparing) && status != string(models.OrderStatusReady) {
		return nil, ErrInvalidStatus
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(order).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	return order, nil
}

// MarkDelivered completes an order: it refuses while any line's item is out
// of stock, then flips the action, stamps completion, and deducts stock.
// A partial deduction failure does not roll the delivery back; stock is the
// part that degrades, not the handoff.
func (s *Service) MarkDelivered(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Action == models.ActionDelivered {
		return nil, ErrAlreadyDelivered
	}
	if len(order.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	names := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		names = append(names, item.ItemName)
	}
	unavailable, err := s.Unavailable(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(unavailable) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemsUnavailable, strings.Join(unavailable, ", "))
	}

	now := time.Now()
	updates := map[string]interface{}{
		"action":       models.ActionDelivered,
		"status":       string(models.OrderStatusReady),
		"completed_at": now,
	}
	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("mark delivered: %w", err)
	}
	order.Action = models.ActionDelivered
	order.Status = string(models.OrderStatusReady)
	order.CompletedAt = &now

	amounts := make(map[string]int, len(order.Items))
	for _, item := range order.Items {
		amounts[item.ItemName] += item.Quantity
	}
	if _, err := s.inventory.DeductStock(ctx, amounts); err != nil {
		// The order stays delivered; only log the stock discrepancy.
		log.Printf("Stock deduction incomplete for order %d: %v", order.ID, err)
	}

	monitoring.OrdersDeliveredTotal.Inc()
	return order, nil
}

// TodaysSummary aggregates today's orders for the dashboard.
func (s *Service) TodaysSummary(ctx context.Context) (*Summary, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24 * time.Hour)

	var todays []models.Order
	err := s.db.Where("order_time >= ? AND order_time < ?", start, end).Find(&todays).Error
	if err != nil {
		return nil, fmt.Errorf("today's summary: %w", err)
	}

	summary := &Summary{TotalOrders: len(todays)}
	for _, order := range todays {
		switch {
		case order.Action == models.ActionDelivered:
			summary.DeliveredOrders++
		case order.Status == string(models.OrderStatusReady):
			summary.ReadyOrders++
		case order.Status == string(models.OrderStatusPreparing):
			summary.PreparingOrders++
		}
		summary.TotalRevenue += order.TotalAmount
	}
	return summary, nil
}

func newOrderNumber() string {
	return fmt.Sprintf("KB-%s-%s", time.Now().Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}
