// Package reports builds sales analytics over delivered orders.
package reports

import (
	"context"
	"fmt"
	"time"

	"khanabuddy/internal/models"

	"github.com/jinzhu/gorm"
)

// DeliveredOrder is one delivered order flattened for the analytics views.
type DeliveredOrder struct {
	OrderNumber   string     `json:"order_number"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Items         []string   `json:"items"`
	Total         float64    `json:"total"`
	OrderTime     time.Time  `json:"order_time"`
	DeliveredAt   *time.Time `json:"delivered_at"`
}

// Stats summarises a set of delivered orders.
type Stats struct {
	TotalOrders   int     `json:"total_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// DailyReport is today's delivered orders plus their summary.
type DailyReport struct {
	Stats
	Orders []DeliveredOrder `json:"orders"`
}

// Service answers reporting queries.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// TodaysReport returns orders delivered since local midnight, newest first,
// with totals and the average order value.
func (s *Service) TodaysReport(ctx context.Context) (*DailyReport, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24 * time.Hour)

	orders, err := s.delivered(func(q *gorm.DB) *gorm.DB {
		return q.Where("completed_at >= ? AND completed_at < ?", start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("today's report: %w", err)
	}

	report := &DailyReport{Orders: formatOrders(orders)}
	report.Stats = computeStats(orders)
	return report, nil
}

// DeliveredOrders returns every delivered order ever, newest first. No date
// filter; this backs the historical sales view.
func (s *Service) DeliveredOrders(ctx context.Context) ([]DeliveredOrder, error) {
	orders, err := s.delivered(nil)
	if err != nil {
		return nil, fmt.Errorf("delivered orders: %w", err)
	}
	return formatOrders(orders), nil
}

// WeeklyStats summarises orders delivered in the last seven days.
func (s *Service) WeeklyStats(ctx context.Context) (*Stats, error) {
	oneWeekAgo := time.Now().Add(-7 * 24 * time.Hour)

	orders, err := s.delivered(func(q *gorm.DB) *gorm.DB {
		return q.Where("completed_at >= ?", oneWeekAgo)
	})
	if err != nil {
		return nil, fmt.Errorf("weekly stats: %w", err)
	}

	stats := computeStats(orders)
	return &stats, nil
}

// ClearDelivered removes all delivered orders and their items.
func (s *Service) ClearDelivered(ctx context.Context) error {
	var delivered []models.Order
	err := s.db.Where("action = ?", models.ActionDelivered).Find(&delivered).Error
	if err != nil {
		return fmt.Errorf("clear delivered: %w", err)
	}
	for _, order := range delivered {
		if err := s.db.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("clear delivered items: %w", err)
		}
		if err := s.db.Delete(&order).Error; err != nil {
			return fmt.Errorf("clear delivered: %w", err)
		}
	}
	return nil
}

func (s *Service) delivered(scope func(*gorm.DB) *gorm.DB) ([]models.Order, error) {
	q := s.db.Preload("Items").Where("action = ?", models.ActionDelivered)
	if scope != nil {
		q = scope(q)
	}

	var orders []models.Order
	if err := q.Order("completed_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func computeStats(orders []models.Order) Stats {
	stats := Stats{TotalOrders: len(orders)}
	for _, order := range orders {
		stats.TotalRevenue += order.TotalAmount
	}
	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}
	return stats
}

func formatOrders(orders []models.Order) []DeliveredOrder {
	out := make([]DeliveredOrder, 0, len(orders))
	for _, order := range orders {
		items := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, fmt.Sprintf("%dx %s", item.Quantity, item.ItemName))
		}
		out = append(out, DeliveredOrder{
			OrderNumber:   order.OrderNumber,
			CustomerName:  order.CustomerName,
			CustomerPhone: order.CustomerPhone,
			Items:         items,
			Total:         order.TotalAmount,
			OrderTime:     order.OrderTime,
			DeliveredAt:   order.CompletedAt,
		})
	}
	return out
}
