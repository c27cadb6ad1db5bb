package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"khanabuddy/internal/auth"
	"khanabuddy/internal/catalog"
	"khanabuddy/internal/events"
	"khanabuddy/internal/models"
	"khanabuddy/internal/orders"
	"khanabuddy/internal/reconcile"
	"khanabuddy/internal/reports"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.InventoryItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.AdminLogin{},
	).Error)
	t.Cleanup(func() { db.Close() })

	bus := events.NewDispatcher()
	t.Cleanup(bus.Close)

	inventory := catalog.NewService(db, bus)
	orderSvc := orders.NewService(db, inventory, bus)
	reportSvc := reports.NewService(db)
	authSvc := auth.NewService(db, "test_secret")

	listener := reconcile.New(inventory, bus)
	t.Cleanup(listener.Close)

	hub := NewHub(bus)
	t.Cleanup(hub.Close)

	sessions := NewSessionManager(inventory, bus)
	t.Cleanup(sessions.CloseAll)

	ctx := context.Background()
	require.NoError(t, inventory.AddItem(ctx, &models.InventoryItem{ItemName: "Burger", Price: 120, Quantity: 10}))
	require.NoError(t, inventory.AddItem(ctx, &models.InventoryItem{ItemName: "Pizza", Price: 250, Quantity: 5}))

	return NewServer(sessions, inventory, orderSvc, reportSvc, authSvc, listener, hub)
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionConversationFlow(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.SessionID)

	w = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/utterance", "",
		map[string]string{"text": "2 burgers please"})
	require.Equal(t, http.StatusOK, w.Code)

	var reply struct {
		Reply  string  `json:"reply"`
		Total  float64 `json:"total"`
		Closed bool    `json:"closed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "2 burger added", reply.Reply)
	assert.Equal(t, 240.0, reply.Total)
	assert.False(t, reply.Closed)

	w = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/utterance", "",
		map[string]string{"text": "my order is done"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.True(t, reply.Closed)

	// Closed sessions reject further input.
	w = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/utterance", "",
		map[string]string{"text": "one pizza"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Checkout places the order and ends the session.
	w = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/checkout", "",
		map[string]string{"customer_name": "Asha"})
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, 240.0, order.TotalAmount)
	assert.Equal(t, "Asha", order.CustomerName)

	w = doJSON(t, s, http.MethodGet, "/api/v1/sessions/"+created.SessionID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutRequiresClosedSession(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, s, http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/checkout", "",
		map[string]string{"customer_name": "Asha"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInventoryRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	// Reads are public.
	w := doJSON(t, s, http.MethodGet, "/api/v1/inventory", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Writes are not.
	w = doJSON(t, s, http.MethodPost, "/api/v1/inventory", "",
		models.InventoryItem{ItemName: "Fries", Price: 80, Quantity: 10})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/api/v1/admin/login", "",
		map[string]string{"username": "admin", "password": "adminqw"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	w = doJSON(t, s, http.MethodPost, "/api/v1/inventory", login.Token,
		models.InventoryItem{ItemName: "Fries", Price: 80, Quantity: 10})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAdminLoginRejected(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/admin/login", "",
		map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndDeliverOrder(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/v1/orders", "", map[string]interface{}{
		"customer_name": "Ravi",
		"items": []map[string]interface{}{
			{"item_name": "Pizza", "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, 500.0, order.TotalAmount)

	// Requesting more than stock is refused.
	w = doJSON(t, s, http.MethodPost, "/api/v1/orders", "", map[string]interface{}{
		"customer_name": "Ravi",
		"items": []map[string]interface{}{
			{"item_name": "Pizza", "quantity": 50},
		},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	token := adminToken(t, s)

	w = doJSON(t, s, http.MethodPost, "/api/v1/orders/1/deliver", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, models.ActionDelivered, order.Action)
}

func adminToken(t *testing.T, s *Server) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/v1/admin/login", "",
		map[string]string{"username": "admin", "password": "adminqw"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	return login.Token
}

func TestSessionManager(t *testing.T) {
	bus := events.NewDispatcher()
	defer bus.Close()

	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.InventoryItem{}).Error)
	defer db.Close()

	inventory := catalog.NewService(db, bus)
	manager := NewSessionManager(inventory, bus)
	defer manager.CloseAll()

	session := manager.Create(context.Background())
	assert.Equal(t, 1, manager.Len())

	got, ok := manager.Get(session.ID)
	assert.True(t, ok)
	assert.Equal(t, session.ID, got.ID)

	manager.Remove(session.ID)
	assert.Equal(t, 0, manager.Len())
	_, ok = manager.Get(session.ID)
	assert.False(t, ok)
}
