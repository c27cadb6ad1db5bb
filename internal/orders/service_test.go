package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"khanabuddy/internal/catalog"
	"khanabuddy/internal/events"
	"khanabuddy/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *catalog.Service, *events.Dispatcher) {
	t.Helper()
	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.InventoryItem{},
		&models.Order{},
		&models.OrderItem{},
	).Error)
	t.Cleanup(func() { db.Close() })

	bus := events.NewDispatcher()
	t.Cleanup(bus.Close)

	inventory := catalog.NewService(db, bus)
	svc := NewService(db, inventory, bus)

	ctx := context.Background()
	require.NoError(t, inventory.AddItem(ctx, &models.InventoryItem{ItemName: "Burger", Price: 120, Quantity: 10}))
	require.NoError(t, inventory.AddItem(ctx, &models.InventoryItem{ItemName: "Pizza", Price: 250, Quantity: 3}))
	require.NoError(t, inventory.AddItem(ctx, &models.InventoryItem{ItemName: "Fries", Price: 80, Quantity: 0}))

	return svc, inventory, bus
}

func TestCreateOrder(t *testing.T) {
	svc, _, bus := newTestService(t)
	ctx := context.Background()

	var created []events.Event
	bus.Subscribe(events.KindOrderCreated, func(e events.Event) {
		created = append(created, e)
	})

	order, err := svc.Create(ctx, "Asha", "9876543210", "less spicy", []LineInput{
		{ItemName: "Burger", Quantity: 2, UnitPrice: 120},
		{ItemName: "Pizza", Quantity: 1, UnitPrice: 250},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, "Asha", order.CustomerName)
	assert.Equal(t, 490.0, order.TotalAmount)
	assert.Equal(t, string(models.OrderStatusPreparing), order.Status)
	assert.Equal(t, models.ActionInProgress, order.Action)
	require.Len(t, order.Items, 2)
	assert.NotNil(t, order.Items[0].InventoryItemID)
	assert.Equal(t, 240.0, order.Items[0].TotalPrice)

	require.Len(t, created, 1)
	assert.Equal(t, order.ID, created[0].OrderID)
}

func TestCreateOrderDefaultsPriceFromCatalog(t *testing.T) {
	svc, _, _ := newTestService(t)

	order, err := svc.Create(context.Background(), "Ravi", "", "", []LineInput{
		{ItemName: "Burger", Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 120.0, order.Items[0].UnitPrice)
	assert.Equal(t, 120.0, order.TotalAmount)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "", "", []LineInput{{ItemName: "Burger", Quantity: 1}})
	assert.True(t, errors.Is(err, ErrMissingCustomer))

	_, err = svc.Create(ctx, "Asha", "", "", nil)
	assert.True(t, errors.Is(err, ErrEmptyOrder))
}

func TestCreateOrderUnavailable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// More than in stock.
	_, err := svc.Create(ctx, "Asha", "", "", []LineInput{{ItemName: "Pizza", Quantity: 5}})
	assert.True(t, errors.Is(err, ErrItemsUnavailable))

	// Out of stock entirely.
	_, err = svc.Create(ctx, "Asha", "", "", []LineInput{{ItemName: "Fries", Quantity: 1}})
	assert.True(t, errors.Is(err, ErrItemsUnavailable))

	// Not on the menu at all.
	_, err = svc.Create(ctx, "Asha", "", "", []LineInput{{ItemName: "Sushi", Quantity: 1}})
	assert.True(t, errors.Is(err, ErrItemsUnavailable))
}

func TestCheckAvailability(t *testing.T) {
	svc, _, _ := newTestService(t)

	checks, err := svc.CheckAvailability(context.Background(), []LineInput{
		{ItemName: "Burger", Quantity: 2},
		{ItemName: "Pizza", Quantity: 5},
		{ItemName: "Sushi", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, checks, 3)

	assert.True(t, checks[0].IsAvailable)
	assert.Equal(t, 10, checks[0].AvailableQuantity)
	assert.False(t, checks[1].IsAvailable)
	assert.False(t, checks[2].IsAvailable)
	assert.Equal(t, 0, checks[2].AvailableQuantity)
}

func TestUpdateStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, "Asha", "", "", []LineInput{{ItemName: "Burger", Quantity: 1}})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, order.ID, string(models.OrderStatusReady))
	require.NoError(t, err)
	assert.Equal(t, string(models.OrderStatusReady), updated.Status)

	_, err = svc.UpdateStatus(ctx, order.ID, "burnt")
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	_, err = svc.UpdateStatus(ctx, 999, string(models.OrderStatusReady))
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestMarkDelivered(t *testing.T) {
	svc, inventory, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, "Asha", "", "", []LineInput{
		{ItemName: "Burger", Quantity: 2},
		{ItemName: "Pizza", Quantity: 1},
	})
	require.NoError(t, err)

	delivered, err := svc.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionDelivered, delivered.Action)
	assert.NotNil(t, delivered.CompletedAt)

	// Delivery deducts stock.
	items, err := inventory.ListItems(ctx)
	require.NoError(t, err)
	byName := map[string]int{}
	for _, item := range items {
		byName[item.ItemName] = item.Quantity
	}
	assert.Equal(t, 8, byName["Burger"])
	assert.Equal(t, 2, byName["Pizza"])

	_, err = svc.MarkDelivered(ctx, order.ID)
	assert.True(t, errors.Is(err, ErrAlreadyDelivered))
}

func TestMarkDeliveredRefusesOutOfStock(t *testing.T) {
	svc, inventory, _ := newTestService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, "Asha", "", "", []LineInput{{ItemName: "Pizza", Quantity: 2}})
	require.NoError(t, err)

	// Stock ran out between ordering and delivery.
	items, err := inventory.ListItems(ctx)
	require.NoError(t, err)
	for _, item := range items {
		if item.ItemName == "Pizza" {
			item.Quantity = 0
			require.NoError(t, inventory.UpdateItem(ctx, &item))
		}
	}

	_, err = svc.MarkDelivered(ctx, order.ID)
	assert.True(t, errors.Is(err, ErrItemsUnavailable))
}

func TestActiveAndHistory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "Asha", "", "", []LineInput{{ItemName: "Burger", Quantity: 1}})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "Ravi", "", "", []LineInput{{ItemName: "Pizza", Quantity: 1}})
	require.NoError(t, err)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = svc.MarkDelivered(ctx, first.ID)
	require.NoError(t, err)

	active, err = svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, first.ID, history[0].ID)
}

func TestTodaysSummary(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "Asha", "", "", []LineInput{{ItemName: "Burger", Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Ravi", "", "", []LineInput{{ItemName: "Pizza", Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.MarkDelivered(ctx, first.ID)
	require.NoError(t, err)

	summary, err := svc.TodaysSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalOrders)
	assert.Equal(t, 1, summary.DeliveredOrders)
	assert.Equal(t, 1, summary.PreparingOrders)
	assert.Equal(t, 370.0, summary.TotalRevenue)
}

func TestTodaysSummaryStartsAtLocalMidnight(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := models.Order{
		OrderNumber:  "KB-TEST-yesterday",
		CustomerName: "Late",
		TotalAmount:  999,
		Status:       string(models.OrderStatusPreparing),
		Action:       models.ActionInProgress,
		OrderTime:    midnight.Add(-time.Minute),
	}
	require.NoError(t, svc.db.Create(&yesterday).Error)

	_, err := svc.Create(ctx, "Asha", "", "", []LineInput{{ItemName: "Burger", Quantity: 1}})
	require.NoError(t, err)

	summary, err := svc.TodaysSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalOrders)
	assert.Equal(t, 120.0, summary.TotalRevenue)
}
