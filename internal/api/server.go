// Package api exposes the HTTP surface: assistant sessions, inventory and
// order management, reports, admin login, and the live dashboard WebSocket.
package api

import (
	"net/http"

	"khanabuddy/internal/auth"
	"khanabuddy/internal/catalog"
	"khanabuddy/internal/orders"
	"khanabuddy/internal/reconcile"
	"khanabuddy/internal/reports"

	"github.com/gin-gonic/gin"
)

// Server wires the route tree onto the domain services.
type Server struct {
	router    *gin.Engine
	sessions  *SessionManager
	inventory *catalog.Service
	orders    *orders.Service
	reports   *reports.Service
	auth      *auth.Service
	listener  *reconcile.Listener
	hub       *Hub
}

// NewServer creates the API server and registers all routes.
func NewServer(
	sessions *SessionManager,
	inventory *catalog.Service,
	orderSvc *orders.Service,
	reportSvc *reports.Service,
	authSvc *auth.Service,
	listener *reconcile.Listener,
	hub *Hub,
) *Server {
	s := &Server{
		router:    gin.Default(),
		sessions:  sessions,
		inventory: inventory,
		orders:    orderSvc,
		reports:   reportSvc,
		auth:      authSvc,
		listener:  listener,
		hub:       hub,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "KhanaBuddy API is running"})
	})

	s.router.GET("/ws", s.hub.HandleWS)

	v1 := s.router.Group("/api/v1")
	{
		// Assistant conversations
		v1.POST("/sessions", s.CreateSession)
		v1.GET("/sessions/:id", s.GetSession)
		v1.POST("/sessions/:id/utterance", s.PostUtterance)
		v1.POST("/sessions/:id/checkout", s.CheckoutSession)
		v1.DELETE("/sessions/:id", s.DeleteSession)

		// Menu browsing
		v1.GET("/inventory", s.ListInventory)

		// Order placement and dashboard reads
		v1.POST("/orders", s.CreateOrder)
		v1.GET("/orders/active", s.ActiveOrders)
		v1.GET("/orders/summary", s.OrdersSummary)
		v1.GET("/orders/views", s.OrderViews)
		v1.GET("/orders/:id", s.GetOrder)

		// Admin login
		v1.POST("/admin/login", s.AdminLogin)

		// Admin-only management
		admin := v1.Group("/", s.auth.Middleware())
		{
			admin.POST("/inventory", s.AddInventoryItem)
			admin.PUT("/inventory/:id", s.UpdateInventoryItem)
			admin.DELETE("/inventory/:id", s.DeleteInventoryItem)

			admin.PUT("/orders/:id/status", s.UpdateOrderStatus)
			admin.POST("/orders/:id/deliver", s.DeliverOrder)
			admin.GET("/orders/history", s.OrderHistory)

			admin.GET("/reports/today", s.TodaysReport)
			admin.GET("/reports/delivered", s.DeliveredOrders)
			admin.GET("/reports/weekly", s.WeeklyStats)
			admin.DELETE("/reports/delivered", s.ClearDelivered)

			admin.GET("/admin/logins", s.AdminLogins)
		}
	}
}

// Router returns the Gin router.
func (s *Server) Router() *gin.Engine {
	return s.router
}
