package catalog

import (
	"context"
	"errors"
	"fmt"

	"khanabuddy/internal/events"
	"khanabuddy/internal/models"

	"github.com/jinzhu/gorm"
)

var (
	// ErrItemNotFound indicates an inventory item ID that does not exist.
	ErrItemNotFound = errors.New("inventory item not found")
)

// Service owns inventory CRUD. Every mutation diffs the previous state and
// publishes the matching change notifications so open order views and
// ordering sessions stay synchronized.
type Service struct {
	db  *gorm.DB
	bus *events.Dispatcher
}

// NewService creates an inventory service over the given database and bus.
func NewService(db *gorm.DB, bus *events.Dispatcher) *Service {
	return &Service{db: db, bus: bus}
}

// ListItems returns all inventory items in catalog order.
func (s *Service) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := s.db.Order("item_name asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}

// GetItem returns one item by ID.
func (s *Service) GetItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := s.db.First(&item, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return &item, nil
}

// AddItem inserts a new item and announces it as newly available.
func (s *Service) AddItem(ctx context.Context, item *models.InventoryItem) error {
	if item.MinStock <= 0 {
		item.MinStock = models.DefaultMinStock
	}
	if err := s.db.Create(item).Error; err != nil {
		return fmt.Errorf("add inventory item: %w", err)
	}

	change := events.ItemChange{
		Name:           item.ItemName,
		Quantity:       item.Quantity,
		Price:          item.Price,
		NewlyAvailable: item.Quantity > 0,
		IsNewItem:      true,
	}
	s.bus.Publish(events.Event{Kind: events.KindItemAdded, Changes: []events.ItemChange{change}})
	s.bus.Publish(events.Event{Kind: events.KindInventoryUpdated, Changes: []events.ItemChange{change}})
	return nil
}

// UpdateItem saves changed fields of an existing item and publishes the
// notifications implied by the diff: price change, quantity change, and a
// back-in-stock signal when the quantity crosses zero upward.
func (s *Service) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	prev, err := s.GetItem(ctx, item.ID)
	if err != nil {
		return err
	}

	if item.MinStock <= 0 {
		item.MinStock = models.DefaultMinStock
	}
	updates := map[string]interface{}{
		"item_name": item.ItemName,
		"price":     item.Price,
		"quantity":  item.Quantity,
		"min_stock": item.MinStock,
	}
	if err := s.db.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}

	change := events.ItemChange{
		Name:             item.ItemName,
		Quantity:         item.Quantity,
		Price:            item.Price,
		PreviousQuantity: prev.Quantity,
		PreviousPrice:    prev.Price,
		QuantityChanged:  prev.Quantity != item.Quantity,
		PriceChanged:     prev.Price != item.Price,
		NewlyAvailable:   prev.Quantity == 0 && item.Quantity > 0,
	}
	changes := []events.ItemChange{change}

	s.bus.Publish(events.Event{Kind: events.KindInventoryUpdated, Changes: changes})
	if change.PriceChanged || change.NewlyAvailable {
		s.bus.Publish(events.Event{Kind: events.KindPricesUpdated, Changes: changes})
	}
	if change.QuantityChanged {
		s.bus.Publish(events.Event{Kind: events.KindQuantityUpdated, Changes: changes})
	}
	return nil
}

// DeleteItem removes an item and announces its removal.
func (s *Service) DeleteItem(ctx context.Context, id uint) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(item).Error; err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}

	s.bus.Publish(events.Event{Kind: events.KindItemRemoved, Removed: []string{item.ItemName}})
	s.bus.Publish(events.Event{Kind: events.KindInventoryUpdated, Removed: []string{item.ItemName}})
	return nil
}

// DeductStock lowers the quantities of the named items, flooring at zero,
// and publishes the resulting quantity changes in one batch. Items that fail
// to update are skipped; the order delivery that triggered the deduction is
// not rolled back on a partial failure.
func (s *Service) DeductStock(ctx context.Context, amounts map[string]int) ([]events.ItemChange, error) {
	var changes []events.ItemChange
	var firstErr error

	for name, qty := range amounts {
		var item models.InventoryItem
		if err := s.db.Where("lower(item_name) = lower(?)", name).First(&item).Error; err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("deduct %q: %w", name, err)
			}
			continue
		}

		newQuantity := item.Quantity - qty
		if newQuantity < 0 {
			newQuantity = 0
		}
		if newQuantity == item.Quantity {
			continue
		}

		if err := s.db.Model(&item).Update("quantity", newQuantity).Error; err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("deduct %q: %w", name, err)
			}
			continue
		}

		changes = append(changes, events.ItemChange{
			Name:             item.ItemName,
			Quantity:         newQuantity,
			Price:            item.Price,
			PreviousQuantity: item.Quantity,
			PreviousPrice:    item.Price,
			QuantityChanged:  true,
		})
	}

	if len(changes) > 0 {
		s.bus.Publish(events.Event{Kind: events.KindQuantityUpdated, Changes: changes})
		s.bus.Publish(events.Event{Kind: events.KindInventoryUpdated, Changes: changes})
	}
	return changes, firstErr
}
