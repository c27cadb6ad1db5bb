// Package reconcile keeps displayed order totals and stock flags in sync
// with the live catalog. It listens for change notifications, refreshes its
// catalog snapshot, and recomputes every tracked order view in one pass,
// swapping the results in atomically so a view is never shown half-updated.
package reconcile

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"khanabuddy/internal/catalog"
	"khanabuddy/internal/events"
	"khanabuddy/internal/monitoring"
)

// DefaultFlashDelay is how long a back-in-stock highlight stays lit.
const DefaultFlashDelay = 3 * time.Second

// SourceLine is one order line as stored: quantity plus the unit price at
// add time. The stored price is history; display totals come from the
// current catalog.
type SourceLine struct {
	Name      string
	Quantity  int
	UnitPrice float64
}

// ViewLine is one recomputed display line.
type ViewLine struct {
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
	OutOfStock bool    `json:"is_out_of_stock"`
	LowStock   bool    `json:"is_low_stock"`
}

// OrderView is the recomputed display state of one order.
type OrderView struct {
	OrderID uint       `json:"order_id"`
	Lines   []ViewLine `json:"lines"`
	Total   float64    `json:"total"`
}

// Listener tracks open orders and recomputes their views on catalog change.
type Listener struct {
	cache *catalog.Cache

	// FlashDelay is the highlight auto-clear delay. Set it before any
	// events flow; it is not safe to change afterwards.
	FlashDelay time.Duration

	mu      sync.RWMutex
	sources map[uint][]SourceLine
	views   map[uint]OrderView

	flashMu     sync.Mutex
	flashTimers map[string]*time.Timer
	flashing    map[string]struct{}

	runMu   sync.Mutex
	running bool
	pending bool

	unsubscribe []func()
}

// New creates a listener over the store and subscribes it to the change
// notification kinds that affect displayed orders.
func New(store catalog.Store, bus *events.Dispatcher) *Listener {
	l := &Listener{
		cache:       catalog.NewCache(store),
		FlashDelay:  DefaultFlashDelay,
		sources:     make(map[uint][]SourceLine),
		views:       make(map[uint]OrderView),
		flashTimers: make(map[string]*time.Timer),
		flashing:    make(map[string]struct{}),
	}
	if err := l.cache.Refresh(context.Background()); err != nil {
		log.Printf("reconcile: initial catalog load failed: %v", err)
	}

	for _, kind := range []events.Kind{
		events.KindInventoryUpdated,
		events.KindPricesUpdated,
		events.KindQuantityUpdated,
		events.KindItemAdded,
		events.KindItemRemoved,
	} {
		l.unsubscribe = append(l.unsubscribe, bus.Subscribe(kind, l.handleEvent))
	}
	return l
}

// Track registers an order for reconciliation and computes its initial view.
func (l *Listener) Track(orderID uint, lines []SourceLine) {
	l.mu.Lock()
	l.sources[orderID] = lines
	l.views[orderID] = l.computeView(orderID, lines)
	l.mu.Unlock()
}

// Untrack drops an order, typically after delivery.
func (l *Listener) Untrack(orderID uint) {
	l.mu.Lock()
	delete(l.sources, orderID)
	delete(l.views, orderID)
	l.mu.Unlock()
}

// View returns the current display state of one order.
func (l *Listener) View(orderID uint) (OrderView, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.views[orderID]
	return v, ok
}

// Views returns all current order views, ordered by order ID.
func (l *Listener) Views() []OrderView {
	l.mu.RLock()
	out := make([]OrderView, 0, len(l.views))
	for _, v := range l.views {
		out = append(out, v)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Flashing returns the canonical names currently highlighted, sorted.
func (l *Listener) Flashing() []string {
	l.flashMu.Lock()
	out := make([]string, 0, len(l.flashing))
	for name := range l.flashing {
		out = append(out, name)
	}
	l.flashMu.Unlock()

	sort.Strings(out)
	return out
}

// handleEvent lights highlights for back-in-stock and brand-new items, then
// schedules a recompute pass. It never blocks the publisher.
func (l *Listener) handleEvent(e events.Event) {
	for _, change := range e.Changes {
		if change.NewlyAvailable || change.IsNewItem {
			l.flash(change.Name)
		}
	}
	l.schedule()
}

// flash lights the highlight for a name and restarts its clear timer.
// Overlapping notifications restart the timer instead of stacking.
func (l *Listener) flash(name string) {
	key := strings.ToLower(name)

	l.flashMu.Lock()
	defer l.flashMu.Unlock()

	l.flashing[key] = struct{}{}
	if t, ok := l.flashTimers[key]; ok {
		t.Stop()
	}
	l.flashTimers[key] = time.AfterFunc(l.FlashDelay, func() {
		l.flashMu.Lock()
		delete(l.flashing, key)
		delete(l.flashTimers, key)
		l.flashMu.Unlock()
	})
}

// schedule starts a recompute pass unless one is already running, in which
// case a follow-up pass is queued. At most one pass runs at a time.
func (l *Listener) schedule() {
	l.runMu.Lock()
	if l.running {
		l.pending = true
		l.runMu.Unlock()
		return
	}
	l.running = true
	l.runMu.Unlock()

	go func() {
		for {
			l.Recompute(context.Background())

			l.runMu.Lock()
			if !l.pending {
				l.running = false
				l.runMu.Unlock()
				return
			}
			l.pending = false
			l.runMu.Unlock()
		}
	}()
}

// Recompute refreshes the catalog snapshot and rebuilds every tracked view,
// replacing them all in one swap.
func (l *Listener) Recompute(ctx context.Context) {
	if err := l.cache.Refresh(ctx); err != nil {
		log.Printf("reconcile: catalog refresh failed: %v", err)
	}

	l.mu.Lock()
	views := make(map[uint]OrderView, len(l.sources))
	for id, lines := range l.sources {
		views[id] = l.computeView(id, lines)
	}
	l.views = views
	l.mu.Unlock()

	monitoring.ReconcilePassesTotal.Inc()
}

// computeView prices each line at the current catalog price and derives the
// stock flags. Lines whose item has left the catalog or has no stock do not
// count toward the displayed total.
func (l *Listener) computeView(orderID uint, lines []SourceLine) OrderView {
	view := OrderView{OrderID: orderID, Lines: make([]ViewLine, 0, len(lines))}

	for _, src := range lines {
		vl := ViewLine{Name: src.Name, Quantity: src.Quantity}

		item, ok := l.cache.Get(src.Name)
		if ok {
			vl.UnitPrice = item.Price
			vl.LineTotal = float64(src.Quantity) * item.Price
			vl.OutOfStock = item.IsOutOfStock()
			vl.LowStock = item.IsLowStock()
		} else {
			vl.OutOfStock = true
		}

		if ok && !vl.OutOfStock {
			view.Total += vl.LineTotal
		}
		view.Lines = append(view.Lines, vl)
	}
	return view
}

// StartPolling refreshes views on a fixed interval until the context ends,
// covering mutations made outside this process.
func (l *Listener) StartPolling(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.schedule()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close drops subscriptions and stops all highlight timers.
func (l *Listener) Close() {
	for _, unsub := range l.unsubscribe {
		unsub()
	}
	l.unsubscribe = nil

	l.flashMu.Lock()
	for key, t := range l.flashTimers {
		t.Stop()
		delete(l.flashTimers, key)
		delete(l.flashing, key)
	}
	l.flashMu.Unlock()
}
