package api

import (
	"errors"
	"net/http"
	"strconv"

	"khanabuddy/internal/assistant"
	"khanabuddy/internal/auth"
	"khanabuddy/internal/catalog"
	"khanabuddy/internal/models"
	"khanabuddy/internal/orders"

	"github.com/gin-gonic/gin"
)

// Assistant session handlers

func (s *Server) CreateSession(c *gin.Context) {
	session := s.sessions.Create(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID,
		"transcript": session.Transcript(),
	})
}

func (s *Server) GetSession(c *gin.Context) {
	session, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"transcript": session.Transcript(),
		"items":      session.Lines(),
		"total":      session.Total(),
		"closed":     session.Closed(),
	})
}

func (s *Server) PostUtterance(c *gin.Context) {
	session, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := session.HandleUtterance(c.Request.Context(), req.Text)
	if err != nil {
		if errors.Is(err, assistant.ErrSessionClosed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Session is closed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":  reply,
		"items":  session.Lines(),
		"total":  session.Total(),
		"closed": session.Closed(),
	})
}

func (s *Server) CheckoutSession(c *gin.Context) {
	session, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req struct {
		CustomerName        string `json:"customer_name" binding:"required"`
		CustomerPhone       string `json:"customer_phone"`
		SpecialInstructions string `json:"special_instructions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines, _, err := session.Checkout()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Session must reach end of order before checkout"})
		return
	}
	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order has no items"})
		return
	}

	inputs := make([]orders.LineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, orders.LineInput{
			ItemName:  line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	order, err := s.orders.Create(c.Request.Context(), req.CustomerName, req.CustomerPhone, req.SpecialInstructions, inputs)
	if err != nil {
		if errors.Is(err, orders.ErrItemsUnavailable) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.sessions.Remove(session.ID)
	c.JSON(http.StatusCreated, order)
}

func (s *Server) DeleteSession(c *gin.Context) {
	s.sessions.Remove(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// Inventory handlers

func (s *Server) ListInventory(c *gin.Context) {
	items, err := s.inventory.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) AddInventoryItem(c *gin.Context) {
	var item models.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.inventory.AddItem(c.Request.Context(), &item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) UpdateInventoryItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	var item models.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item.ID = id

	if err := s.inventory.UpdateItem(c.Request.Context(), &item); err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) DeleteInventoryItem(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	if err := s.inventory.DeleteItem(c.Request.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Order handlers

func (s *Server) CreateOrder(c *gin.Context) {
	var req struct {
		CustomerName        string             `json:"customer_name" binding:"required"`
		CustomerPhone       string             `json:"customer_phone"`
		SpecialInstructions string             `json:"special_instructions"`
		Items               []orders.LineInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := s.orders.Create(c.Request.Context(), req.CustomerName, req.CustomerPhone, req.SpecialInstructions, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrItemsUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, orders.ErrEmptyOrder), errors.Is(err, orders.ErrMissingCustomer):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) ActiveOrders(c *gin.Context) {
	out, err := s.orders.Active(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) OrderHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	out, err := s.orders.History(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) GetOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := s.orders.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := s.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, orders.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) DeliverOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := s.orders.MarkDelivered(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, orders.ErrItemsUnavailable), errors.Is(err, orders.ErrAlreadyDelivered):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	s.listener.Untrack(order.ID)
	c.JSON(http.StatusOK, order)
}

func (s *Server) OrdersSummary(c *gin.Context) {
	summary, err := s.orders.TodaysSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// OrderViews returns the reconciled per-order views plus the item names
// currently flash-highlighted on the dashboard.
func (s *Server) OrderViews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"views":    s.listener.Views(),
		"flashing": s.listener.Flashing(),
	})
}

// Report handlers

func (s *Server) TodaysReport(c *gin.Context) {
	report, err := s.reports.TodaysReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) DeliveredOrders(c *gin.Context) {
	out, err := s.reports.DeliveredOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) WeeklyStats(c *gin.Context) {
	stats, err := s.reports.WeeklyStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) ClearDelivered(c *gin.Context) {
	if err := s.reports.ClearDelivered(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// Admin handlers

func (s *Server) AdminLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := s.auth.Login(req.Username, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) AdminLogins(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	out, err := s.auth.LoginHistory(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func parseID(raw string) (uint, error) {
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}
