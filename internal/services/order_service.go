// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zoorkhan/storefront/internal/cache"
	"github.com/zoorkhan/storefront/internal/events"
	"github.com/zoorkhan/storefront/internal/models"
	"github.com/zoorkhan/storefront/internal/utils"
)

type OrderService struct {
	db        *gorm.DB
	publisher events.Publisher
	cache     cache.Cache
}

type OrderItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// PlaceOrderRequest is the cart submitted by a customer. Line items are
// checked by PlaceOrder itself so the offending line can be reported.
type PlaceOrderRequest struct {
	Items           []OrderItemRequest `json:"items"`
	ShippingAddress string             `json:"shipping_address" validate:"required,notblank"`
	Phone           string             `json:"phone" validate:"required,notblank,max=20"`
	Notes           string             `json:"notes" validate:"max=2000"`
}

type AdminOrderFilter struct {
	utils.PaginationParams
	Status *models.OrderStatus
	UserID *uint
}

// cartLine is a validated line item with the product price captured at validation time.
type cartLine struct {
	index    int
	product  *models.Product
	quantity int
}

func NewOrderService(db *gorm.DB, publisher events.Publisher, c cache.Cache) *OrderService {
	return &OrderService{
		db:        db,
		publisher: publisher,
		cache:     c,
	}
}

// PlaceOrder validates the cart, then records the order, its items and the
// stock decrements in one transaction. Nothing is written unless every line
// passes and every conditional decrement succeeds.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint, req *PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines, total, err := validateCart(tx, req.Items)
		if err != nil {
			return err
		}

		order = &models.Order{
			UserID:          userID,
			TotalAmount:     total,
			Status:          models.OrderStatusPending,
			ShippingAddress: strings.TrimSpace(req.ShippingAddress),
			Phone:           strings.TrimSpace(req.Phone),
			Notes:           strings.TrimSpace(req.Notes),
		}
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.product.ID,
				Quantity:  line.quantity,
				Price:     line.product.Price,
			})
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		return decrementStock(tx, lines)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.loadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.publish(ctx, events.RoutingOrderCreated, orderCreatedEvent(created))

	return created, nil
}

// validateCart checks each line in submission order: product exists and is
// active, quantity is positive, and the quantity requested so far for that
// product fits in its stock. It returns the lines and the order total.
func validateCart(tx *gorm.DB, items []OrderItemRequest) ([]cartLine, decimal.Decimal, error) {
	products := make(map[uint]*models.Product)
	requested := make(map[uint]int)
	lines := make([]cartLine, 0, len(items))
	total := decimal.Zero

	for i, item := range items {
		product, seen := products[item.ProductID]
		if !seen {
			var p models.Product
			err := tx.First(&p, item.ProductID).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
			}
			if err != nil || !p.Purchasable() {
				return nil, decimal.Zero, &LineItemError{Err: ErrProductNotFound, Index: i, ProductID: item.ProductID}
			}
			product = &p
			products[p.ID] = product
		}

		if item.Quantity <= 0 {
			return nil, decimal.Zero, &LineItemError{
				Err: ErrInvalidQuantity, Index: i, ProductID: product.ID, ProductName: product.Name,
			}
		}

		requested[product.ID] += item.Quantity
		if requested[product.ID] > product.StockQuantity {
			return nil, decimal.Zero, &LineItemError{
				Err: ErrInsufficientStock, Index: i, ProductID: product.ID, ProductName: product.Name,
			}
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		lines = append(lines, cartLine{index: i, product: product, quantity: item.Quantity})
	}

	return lines, total, nil
}

// decrementStock applies one conditional decrement per product, in ascending
// product id order so concurrent orders lock rows in the same sequence.
func decrementStock(tx *gorm.DB, lines []cartLine) error {
	quantities := make(map[uint]int)
	firstLine := make(map[uint]cartLine)
	for _, line := range lines {
		if _, ok := firstLine[line.product.ID]; !ok {
			firstLine[line.product.ID] = line
		}
		quantities[line.product.ID] += line.quantity
	}

	for _, productID := range sortedIDs(quantities) {
		quantity := quantities[productID]
		result := tx.Model(&models.Product{}).
			Where("id = ? AND stock_quantity >= ?", productID, quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
		if result.Error != nil {
			return fmt.Errorf("failed to decrement stock for product %d: %w", productID, result.Error)
		}
		if result.RowsAffected == 0 {
			line := firstLine[productID]
			return &LineItemError{
				Err: ErrInsufficientStock, Index: line.index, ProductID: productID, ProductName: line.product.Name,
			}
		}
	}

	return nil
}

func sortedIDs(quantities map[uint]int) []uint {
	ids := make([]uint, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *OrderService) loadOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := withOrderItems(s.db.WithContext(ctx)).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return &order, nil
}

// withOrderItems preloads items and their products, including soft-deleted ones.
func withOrderItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("OrderItems.Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

// ListForUser returns the user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := withOrderItems(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

// GetForUser returns an order owned by userID. Admins may read any order.
func (s *OrderService) GetForUser(ctx context.Context, orderID, userID uint, isAdmin bool) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) AdminList(ctx context.Context, filter AdminOrderFilter) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "total_amount", "status"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var orders []models.Order
	if err := withOrderItems(query).Preload("User").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus moves an order along its lifecycle. Cancelling an order that
// still holds stock returns that stock in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	var previous models.OrderStatus
	var userID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("OrderItems").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}
		previous, userID = order.Status, order.UserID

		if !order.Status.CanTransitionTo(next) {
			return &TransitionError{From: string(order.Status), To: string(next)}
		}

		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Update("status", next)
		if result.Error != nil {
			return fmt.Errorf("failed to update order status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &TransitionError{From: string(order.Status), To: string(next)}
		}

		if next == models.OrderStatusCancelled && order.Status.HoldsStock() {
			return restoreStock(tx, order.OrderItems)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.publish(ctx, events.RoutingOrderStatusChanged, events.OrderStatusChanged{
		OrderID:   orderID,
		UserID:    userID,
		From:      string(previous),
		To:        string(next),
		ChangedAt: time.Now().UTC(),
	})

	return s.loadOrder(ctx, orderID)
}

// Delete removes an order and its items together. Stock held by a pending or
// confirmed order is returned.
func (s *OrderService) Delete(ctx context.Context, orderID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("OrderItems").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to load order %d: %w", orderID, err)
		}

		if order.Status.HoldsStock() {
			if err := restoreStock(tx, order.OrderItems); err != nil {
				return err
			}
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Delete(&order).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	return nil
}

func restoreStock(tx *gorm.DB, items []models.OrderItem) error {
	quantities := make(map[uint]int)
	for _, item := range items {
		quantities[item.ProductID] += item.Quantity
	}

	for _, productID := range sortedIDs(quantities) {
		err := tx.Unscoped().Model(&models.Product{}).
			Where("id = ?", productID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", quantities[productID])).Error
		if err != nil {
			return fmt.Errorf("failed to restore stock for product %d: %w", productID, err)
		}
	}
	return nil
}

func orderCreatedEvent(order *models.Order) events.OrderCreated {
	lines := make([]events.OrderLine, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		lines = append(lines, events.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return events.OrderCreated{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       lines,
		CreatedAt:   order.CreatedAt.UTC(),
	}
}

func (s *OrderService) publish(ctx context.Context, routingKey string, payload interface{}) {
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		logrus.WithError(err).WithField("routing_key", routingKey).Error("Failed to publish order event")
	}
}

func (s *OrderService) invalidateDashboard(ctx context.Context) {
	invalidateDashboard(ctx, s.cache)
}
