package catalog

import (
	"context"
	"strings"
	"sync"

	"khanabuddy/internal/models"
)

// Store is the read side of the inventory needed by a catalog cache.
type Store interface {
	ListItems(ctx context.Context) ([]models.InventoryItem, error)
}

// Cache holds an in-memory snapshot of the inventory catalog. It is rebuilt
// wholesale on every refresh; a failed refresh leaves an empty catalog so
// callers degrade to not-found instead of serving stale entries.
type Cache struct {
	store Store

	mu     sync.RWMutex
	items  []models.InventoryItem
	byName map[string]models.InventoryItem
}

// NewCache creates an empty cache over the given store.
func NewCache(store Store) *Cache {
	return &Cache{store: store, byName: make(map[string]models.InventoryItem)}
}

// Refresh replaces the snapshot with the store's current contents.
func (c *Cache) Refresh(ctx context.Context) error {
	items, err := c.store.ListItems(ctx)
	if err != nil {
		c.mu.Lock()
		c.items = nil
		c.byName = make(map[string]models.InventoryItem)
		c.mu.Unlock()
		return err
	}

	byName := make(map[string]models.InventoryItem, len(items))
	for _, item := range items {
		byName[strings.ToLower(item.ItemName)] = item
	}

	c.mu.Lock()
	c.items = items
	c.byName = byName
	c.mu.Unlock()
	return nil
}

// Items returns the snapshot in catalog order.
func (c *Cache) Items() []models.InventoryItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.InventoryItem, len(c.items))
	copy(out, c.items)
	return out
}

// Get looks up an item by canonical name, case-insensitively.
func (c *Cache) Get(name string) (models.InventoryItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.byName[strings.ToLower(name)]
	return item, ok
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
