package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles API requests to the KhanaBuddy API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	UseMock    bool
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("KHANABUDDY_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		UseMock: false, // Default to trying the real server first
	}

	// Verify connectivity - if server is not available, use mock data
	if !client.ping() {
		fmt.Printf("Warning: API server at %s is not available. Using mock data.\n", baseURL)
		client.UseMock = true
	}

	return client
}

// ping checks if the API server is available
func (c *ApiClient) ping() bool {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Message is one line of the assistant conversation
type Message struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// OrderLine is one line of the session's running order
type OrderLine struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Session mirrors the assistant session state returned by the API
type Session struct {
	SessionID  string      `json:"session_id"`
	Transcript []Message   `json:"transcript"`
	Items      []OrderLine `json:"items"`
	Total      float64     `json:"total"`
	Closed     bool        `json:"closed"`
}

// UtteranceResponse is the assistant's reply to one utterance
type UtteranceResponse struct {
	Reply  string      `json:"reply"`
	Items  []OrderLine `json:"items"`
	Total  float64     `json:"total"`
	Closed bool        `json:"closed"`
}

// InventoryItem represents one menu item
type InventoryItem struct {
	ID       uint    `json:"ID"`
	ItemName string  `json:"item_name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	MinStock int     `json:"min_stock"`
}

// Order represents a placed customer order
type Order struct {
	ID            uint        `json:"ID"`
	OrderNumber   string      `json:"order_number"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	TotalAmount   float64     `json:"total_amount"`
	Status        string      `json:"status"`
	Action        string      `json:"action"`
	OrderTime     time.Time   `json:"order_time"`
	Items         []OrderItem `json:"order_items"`
}

// OrderItem is one line of a placed order
type OrderItem struct {
	ItemName   string  `json:"item_name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// Summary aggregates today's order activity
type Summary struct {
	TotalOrders     int     `json:"total_orders"`
	PreparingOrders int     `json:"preparing_orders"`
	ReadyOrders     int     `json:"ready_orders"`
	DeliveredOrders int     `json:"delivered_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
}

// CreateSession starts a new assistant conversation
func (c *ApiClient) CreateSession() (*Session, error) {
	if c.UseMock {
		return c.createMockSession(), nil
	}

	resp, err := c.httpClient.Post(c.BaseURL+"/api/v1/sessions", "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create session with status code: %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SendUtterance sends one caller message and returns the assistant's reply
func (c *ApiClient) SendUtterance(sessionID, text string) (*UtteranceResponse, error) {
	if c.UseMock {
		return c.mockUtterance(text), nil
	}

	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/sessions/%s/utterance", c.BaseURL, sessionID)
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("utterance rejected: %s", string(body))
	}

	var out UtteranceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Checkout places the session's order after end of order is reached
func (c *ApiClient) Checkout(sessionID, customerName, phone string) (*Order, error) {
	if c.UseMock {
		return &Order{OrderNumber: "KB-MOCK-0001", CustomerName: customerName, Status: "preparing"}, nil
	}

	data, err := json.Marshal(map[string]string{
		"customer_name":  customerName,
		"customer_phone": phone,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/sessions/%s/checkout", c.BaseURL, sessionID)
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("checkout failed: %s", string(body))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetMenu retrieves the current inventory
func (c *ApiClient) GetMenu() ([]InventoryItem, error) {
	if c.UseMock {
		return c.getMockMenu(), nil
	}

	resp, err := c.httpClient.Get(c.BaseURL + "/api/v1/inventory")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get menu with status code: %d", resp.StatusCode)
	}

	var items []InventoryItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetActiveOrders retrieves undelivered orders
func (c *ApiClient) GetActiveOrders() ([]Order, error) {
	if c.UseMock {
		return c.getMockOrders(), nil
	}

	resp, err := c.httpClient.Get(c.BaseURL + "/api/v1/orders/active")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get orders with status code: %d", resp.StatusCode)
	}

	var orders []Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder retrieves a specific order by ID
func (c *ApiClient) GetOrder(id uint) (*Order, error) {
	if c.UseMock {
		orders := c.getMockOrders()
		for _, order := range orders {
			if order.ID == id {
				return &order, nil
			}
		}
		return nil, fmt.Errorf("order %d not found", id)
	}

	resp, err := c.httpClient.Get(fmt.Sprintf("%s/api/v1/orders/%d", c.BaseURL, id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get order with status code: %d", resp.StatusCode)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetSummary retrieves today's order summary
func (c *ApiClient) GetSummary() (*Summary, error) {
	if c.UseMock {
		return &Summary{TotalOrders: 3, PreparingOrders: 1, ReadyOrders: 1, DeliveredOrders: 1, TotalRevenue: 710}, nil
	}

	resp, err := c.httpClient.Get(c.BaseURL + "/api/v1/orders/summary")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get summary with status code: %d", resp.StatusCode)
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Mock data generators

func (c *ApiClient) createMockSession() *Session {
	return &Session{
		SessionID: "mock-session",
		Transcript: []Message{
			{From: "ai", Text: "Hi, What would you like to order?"},
		},
	}
}

func (c *ApiClient) mockUtterance(text string) *UtteranceResponse {
	return &UtteranceResponse{
		Reply: "one burger added",
		Items: []OrderLine{{Name: "burger", Price: 120, Quantity: 1}},
		Total: 120,
	}
}

func (c *ApiClient) getMockMenu() []InventoryItem {
	return []InventoryItem{
		{ID: 1, ItemName: "Burger", Price: 120, Quantity: 15, MinStock: 5},
		{ID: 2, ItemName: "Pizza", Price: 250, Quantity: 8, MinStock: 5},
		{ID: 3, ItemName: "Fries", Price: 80, Quantity: 0, MinStock: 5},
		{ID: 4, ItemName: "Coke", Price: 40, Quantity: 30, MinStock: 10},
	}
}

func (c *ApiClient) getMockOrders() []Order {
	return []Order{
		{
			ID:           1,
			OrderNumber:  "KB-20250901-A1B2C3D4",
			CustomerName: "Asha",
			TotalAmount:  370,
			Status:       "preparing",
			Action:       "In Progress",
			OrderTime:    time.Now().Add(-30 * time.Minute),
			Items: []OrderItem{
				{ItemName: "Burger", Quantity: 1, UnitPrice: 120, TotalPrice: 120},
				{ItemName: "Pizza", Quantity: 1, UnitPrice: 250, TotalPrice: 250},
			},
		},
		{
			ID:           2,
			OrderNumber:  "KB-20250901-E5F6A7B8",
			CustomerName: "Ravi",
			TotalAmount:  340,
			Status:       "ready",
			Action:       "In Progress",
			OrderTime:    time.Now().Add(-15 * time.Minute),
			Items: []OrderItem{
				{ItemName: "Pizza", Quantity: 1, UnitPrice: 250, TotalPrice: 250},
				{ItemName: "Coke", Quantity: 2, UnitPrice: 40, TotalPrice: 80},
			},
		},
	}
}
