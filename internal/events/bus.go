// Package events provides the process-wide change-notification dispatcher.
// Inventory and order mutations publish here; order views, ordering sessions
// and dashboard feeds subscribe. It replaces ad-hoc cross-component signaling
// with an explicit publish/subscribe surface that has a defined lifecycle.
package events

import (
	"sync"
	"time"

	"khanabuddy/internal/monitoring"
)

// Kind identifies a notification category.
type Kind string

const (
	KindInventoryUpdated Kind = "inventory-updated"
	KindPricesUpdated    Kind = "prices-updated"
	KindQuantityUpdated  Kind = "quantity-updated"
	KindItemAdded        Kind = "item-added"
	KindItemRemoved      Kind = "item-removed"
	KindOrderCreated     Kind = "order-created"
)

// ItemChange describes one inventory item affected by a notification.
type ItemChange struct {
	Name             string  `json:"name"`
	Quantity         int     `json:"quantity"`
	Price            float64 `json:"price"`
	PreviousQuantity int     `json:"previous_quantity"`
	PreviousPrice    float64 `json:"previous_price"`
	QuantityChanged  bool    `json:"quantity_changed"`
	PriceChanged     bool    `json:"price_changed"`
	NewlyAvailable   bool    `json:"newly_available"`
	IsNewItem        bool    `json:"is_new_item"`
}

// Event is the payload delivered to subscribers.
type Event struct {
	Kind    Kind         `json:"kind"`
	Changes []ItemChange `json:"changes,omitempty"`
	Removed []string     `json:"removed,omitempty"`
	OrderID uint         `json:"order_id,omitempty"`
	Time    time.Time    `json:"time"`
}

// Handler receives published events. Handlers run on the publisher's
// goroutine and must not block.
type Handler func(Event)

// Dispatcher fans events out to subscribers by kind. Created once at process
// start and torn down with Close.
type Dispatcher struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Kind]map[int]Handler
	closed bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[Kind]map[int]Handler)}
}

// Subscribe registers a handler for a kind and returns an unsubscribe func.
func (d *Dispatcher) Subscribe(kind Kind, h Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return func() {}
	}
	if d.subs[kind] == nil {
		d.subs[kind] = make(map[int]Handler)
	}
	id := d.nextID
	d.nextID++
	d.subs[kind][id] = h

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs[kind], id)
	}
}

// Publish delivers the event to every subscriber of its kind. The timestamp
// is filled in if the caller left it zero.
func (d *Dispatcher) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	monitoring.EventsPublishedTotal.WithLabelValues(string(e.Kind)).Inc()

	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.subs[e.Kind]))
	for _, h := range d.subs[e.Kind] {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Close drops all subscriptions. Publishing after Close is a no-op.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.subs = make(map[Kind]map[int]Handler)
}
