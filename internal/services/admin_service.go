// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/zoorkhan/storefront/internal/cache"
	"github.com/zoorkhan/storefront/internal/models"
)

const (
	// LowStockThreshold is the stock level at or below which an active product is reported.
	LowStockThreshold = 10
	recentOrdersLimit = 5
)

type AdminService struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
}

type DashboardStats struct {
	TotalUsers       int64           `json:"total_users"`
	TotalProducts    int64           `json:"total_products"`
	TotalOrders      int64           `json:"total_orders"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	PendingOrders    int64           `json:"pending_orders"`
	LowStockProducts int64           `json:"low_stock_products"`
}

type Dashboard struct {
	Stats        DashboardStats `json:"stats"`
	RecentOrders []models.Order `json:"recent_orders"`
}

func NewAdminService(db *gorm.DB, c cache.Cache, ttl time.Duration) *AdminService {
	return &AdminService{
		db:    db,
		cache: c,
		ttl:   ttl,
	}
}

func (s *AdminService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	var dashboard Dashboard
	if hit, err := s.cache.GetJSON(ctx, cache.KeyDashboardStats, &dashboard); err != nil {
		logrus.WithError(err).Warn("Dashboard cache read failed")
	} else if hit {
		return &dashboard, nil
	}

	stats, err := s.collectStats(ctx)
	if err != nil {
		return nil, err
	}
	dashboard.Stats = *stats

	if err := s.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").Order("id DESC").
		Limit(recentOrdersLimit).
		Find(&dashboard.RecentOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent orders: %w", err)
	}

	if err := s.cache.SetJSON(ctx, cache.KeyDashboardStats, dashboard, s.ttl); err != nil {
		logrus.WithError(err).Warn("Dashboard cache write failed")
	}

	return &dashboard, nil
}

// invalidateDashboard drops the cached dashboard after writes that change its counts.
func invalidateDashboard(ctx context.Context, c cache.Cache) {
	if err := c.Delete(ctx, cache.KeyDashboardStats); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate dashboard cache")
	}
}

func (s *AdminService) collectStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := s.db.WithContext(ctx)

	counts := []struct {
		name  string
		query *gorm.DB
		dest  *int64
	}{
		{"customers", db.Model(&models.User{}).Where("role = ?", models.RoleCustomer), &stats.TotalUsers},
		{"products", db.Model(&models.Product{}).Where("is_active = ?", true), &stats.TotalProducts},
		{"orders", db.Model(&models.Order{}), &stats.TotalOrders},
		{"pending orders", db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending), &stats.PendingOrders},
		{"low stock", db.Model(&models.Product{}).
			Where("is_active = ? AND stock_quantity <= ?", true, LowStockThreshold), &stats.LowStockProducts},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
	}

	// Revenue excludes cancelled orders.
	row := db.Model(&models.Order{}).
		Where("status <> ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Row()
	if err := row.Scan(&stats.TotalRevenue); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return stats, nil
}
