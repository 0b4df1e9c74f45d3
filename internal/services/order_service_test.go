package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zoorkhan/storefront/internal/cache"
	"github.com/zoorkhan/storefront/internal/events"
	"github.com/zoorkhan/storefront/internal/models"
	"github.com/zoorkhan/storefront/internal/utils"
)

type orderFixture struct {
	db       *gorm.DB
	service  *OrderService
	customer *models.User
	category *models.Category
}

func newOrderFixture(t *testing.T, publisher events.Publisher) *orderFixture {
	db := newTestDB(t)
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &orderFixture{
		db:       db,
		service:  NewOrderService(db, publisher, cache.Noop{}),
		customer: seedUser(t, db, "customer", models.RoleCustomer),
		category: seedCategory(t, db, "Protein"),
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, events.RoutingOrderCreated, mock.AnythingOfType("events.OrderCreated")).
		Return(nil).Once()

	f := newOrderFixture(t, publisher)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)
	bar := seedProduct(t, f.db, f.category.ID, "Bar", "2.50", 10)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 2},
		OrderItemRequest{ProductID: bar.ID, Quantity: 3},
	))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, f.customer.ID, order.UserID)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("27.50")), "total was %s", order.TotalAmount)
	assert.True(t, order.TotalAmount.Equal(order.ItemsTotal()))

	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, whey.ID, order.OrderItems[0].ProductID)
	assert.True(t, order.OrderItems[0].Price.Equal(decimal.RequireFromString("10")))
	require.NotNil(t, order.OrderItems[0].Product)
	assert.Equal(t, "Whey", order.OrderItems[0].Product.Name)

	assert.Equal(t, 3, stockOf(t, f.db, whey.ID))
	assert.Equal(t, 7, stockOf(t, f.db, bar.ID))
	publisher.AssertExpectations(t)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(t, nil)

	_, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 3)

	_, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 5},
	))

	var lineErr *LineItemError
	require.ErrorAs(t, err, &lineErr)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 0, lineErr.Index)
	assert.Equal(t, "Whey", lineErr.ProductName)
	assert.Equal(t, 3, stockOf(t, f.db, whey.ID))
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
}

func TestPlaceOrder_ProductNotFoundOrInactive(t *testing.T) {
	f := newOrderFixture(t, nil)
	hidden := seedProduct(t, f.db, f.category.ID, "Hidden", "5.00", 10)
	require.NoError(t, f.db.Model(hidden).Update("is_active", false).Error)
	retired := seedProduct(t, f.db, f.category.ID, "Retired", "5.00", 10)
	require.NoError(t, f.db.Delete(retired).Error)

	for _, productID := range []uint{9999, hidden.ID, retired.ID} {
		_, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
			OrderItemRequest{ProductID: productID, Quantity: 1},
		))

		var lineErr *LineItemError
		require.ErrorAs(t, err, &lineErr)
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.Equal(t, productID, lineErr.ProductID)
	}
	assert.Equal(t, 10, stockOf(t, f.db, hidden.ID))
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 3)

	for _, quantity := range []int{0, -2} {
		_, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
			OrderItemRequest{ProductID: whey.ID, Quantity: quantity},
		))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Equal(t, 3, stockOf(t, f.db, whey.ID))
}

func TestPlaceOrder_DuplicateLinesCountTogether(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)

	_, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 3},
		OrderItemRequest{ProductID: whey.ID, Quantity: 3},
	))

	var lineErr *LineItemError
	require.ErrorAs(t, err, &lineErr)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, lineErr.Index)
	assert.Equal(t, 5, stockOf(t, f.db, whey.ID))

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 2},
		OrderItemRequest{ProductID: whey.ID, Quantity: 3},
	))
	require.NoError(t, err)
	assert.Len(t, order.OrderItems, 2)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, 0, stockOf(t, f.db, whey.ID))
}

func TestPlaceOrder_LaterLineFailureWritesNothing(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)
	bar := seedProduct(t, f.db, f.category.ID, "Bar", "2.50", 1)

	_, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 2},
		OrderItemRequest{ProductID: bar.ID, Quantity: 2},
	))
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 5, stockOf(t, f.db, whey.ID))
	assert.Equal(t, 1, stockOf(t, f.db, bar.ID))
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
	assert.Zero(t, countRows(t, f.db, &models.OrderItem{}))
}

func TestPlaceOrder_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 2},
	))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(whey).Update("price", decimal.RequireFromString("99.00")).Error)
	require.NoError(t, f.db.Delete(whey).Error)

	reloaded, err := f.service.GetForUser(context.Background(), order.ID, f.customer.ID, false)
	require.NoError(t, err)
	assert.True(t, reloaded.TotalAmount.Equal(decimal.RequireFromString("20")))
	require.Len(t, reloaded.OrderItems, 1)
	assert.True(t, reloaded.OrderItems[0].Price.Equal(decimal.RequireFromString("10")))
	require.NotNil(t, reloaded.OrderItems[0].Product, "soft-deleted products still load")
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)

	const buyers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
				OrderItemRequest{ProductID: whey.ID, Quantity: 1},
			))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, stockOf(t, f.db, whey.ID))
	assert.Equal(t, int64(5), countRows(t, f.db, &models.Order{}))
}

func TestPlaceOrder_StockDrainedAfterValidationRollsBack(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)

	// Another buyer takes most of the stock once the cart has passed validation.
	err := f.db.Callback().Create().After("gorm:create").Register("test:drain_stock", func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement.Table != "order_items" {
			return
		}
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET stock_quantity = ? WHERE id = ?", 1, whey.ID)
	})
	require.NoError(t, err)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 2},
	))
	require.Error(t, err)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var lineErr *LineItemError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 0, lineErr.Index)
	assert.Equal(t, whey.ID, lineErr.ProductID)
	assert.Equal(t, "Whey", lineErr.ProductName)

	require.NoError(t, f.db.Callback().Create().Remove("test:drain_stock"))
	assert.Equal(t, 5, stockOf(t, f.db, whey.ID))
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
	assert.Zero(t, countRows(t, f.db, &models.OrderItem{}))
}

func TestPlaceOrder_PublishFailureIsNotReturned(t *testing.T) {
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, events.RoutingOrderCreated, mock.Anything).
		Return(errors.New("broker down"))

	f := newOrderFixture(t, publisher)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	publisher.AssertExpectations(t)
}

func TestPlaceOrder_InvalidatesDashboardCache(t *testing.T) {
	db := newTestDB(t)
	c := new(mockCache)
	c.On("Delete", mock.Anything, []string{cache.KeyDashboardStats}).Return(nil).Once()

	service := NewOrderService(db, events.Noop{}, c)
	customer := seedUser(t, db, "customer", models.RoleCustomer)
	category := seedCategory(t, db, "Protein")
	whey := seedProduct(t, db, category.ID, "Whey", "10.00", 5)

	_, err := service.PlaceOrder(context.Background(), customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 1},
	))
	require.NoError(t, err)
	c.AssertExpectations(t)
}

func TestGetForUser_Ownership(t *testing.T) {
	f := newOrderFixture(t, nil)
	other := seedUser(t, f.db, "other", models.RoleCustomer)
	admin := seedUser(t, f.db, "boss", models.RoleAdmin)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.service.GetForUser(context.Background(), order.ID, other.ID, false)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	got, err := f.service.GetForUser(context.Background(), order.ID, admin.ID, true)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.service.GetForUser(context.Background(), 4242, f.customer.ID, false)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListForUser_NewestFirst(t *testing.T) {
	f := newOrderFixture(t, nil)
	other := seedUser(t, f.db, "other", models.RoleCustomer)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 10)

	var ids []uint
	for i := 0; i < 3; i++ {
		order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
			OrderItemRequest{ProductID: whey.ID, Quantity: 1},
		))
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}
	_, err := f.service.PlaceOrder(context.Background(), other.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 1},
	))
	require.NoError(t, err)

	orders, err := f.service.ListForUser(context.Background(), f.customer.ID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[0], orders[2].ID)
	assert.Len(t, orders[0].OrderItems, 1)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	f := newOrderFixture(t, publisher)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 2},
	))
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), order.ID, models.OrderStatus("lost"))
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)

	_, err = f.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusShipped)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, "pending", transitionErr.From)

	updated, err := f.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, updated.Status)

	updated, err = f.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	_, err = f.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, 3, stockOf(t, f.db, whey.ID))

	publisher.AssertCalled(t, "Publish", mock.Anything, events.RoutingOrderStatusChanged,
		mock.MatchedBy(func(e events.OrderStatusChanged) bool {
			return e.OrderID == order.ID && e.From == "confirmed" && e.To == "shipped"
		}))

	_, err = f.service.UpdateStatus(context.Background(), 4242, models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatus_CancelRestoresStock(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)
	bar := seedProduct(t, f.db, f.category.ID, "Bar", "2.50", 4)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 2},
		OrderItemRequest{ProductID: bar.ID, Quantity: 4},
		OrderItemRequest{ProductID: whey.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, f.db, whey.ID))
	assert.Equal(t, 0, stockOf(t, f.db, bar.ID))

	cancelled, err := f.service.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, stockOf(t, f.db, whey.ID))
	assert.Equal(t, 4, stockOf(t, f.db, bar.ID))
}

func TestDelete_RemovesItemsAndRestoresStock(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 2},
	))
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(context.Background(), order.ID))
	assert.Zero(t, countRows(t, f.db, &models.Order{}))
	assert.Zero(t, countRows(t, f.db, &models.OrderItem{}))
	assert.Equal(t, 5, stockOf(t, f.db, whey.ID))

	assert.ErrorIs(t, f.service.Delete(context.Background(), order.ID), ErrOrderNotFound)
}

func TestDelete_DeliveredOrderKeepsStock(t *testing.T) {
	f := newOrderFixture(t, nil)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 5)

	order, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(
		OrderItemRequest{ProductID: whey.ID, Quantity: 2},
	))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", models.OrderStatusDelivered).Error)

	require.NoError(t, f.service.Delete(context.Background(), order.ID))
	assert.Equal(t, 3, stockOf(t, f.db, whey.ID))
}

func TestAdminList_Filters(t *testing.T) {
	f := newOrderFixture(t, nil)
	other := seedUser(t, f.db, "other", models.RoleCustomer)
	whey := seedProduct(t, f.db, f.category.ID, "Whey", "10.00", 10)

	first, err := f.service.PlaceOrder(context.Background(), f.customer.ID, cart(OrderItemRequest{ProductID: whey.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.service.PlaceOrder(context.Background(), other.ID, cart(OrderItemRequest{ProductID: whey.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(context.Background(), first.ID, models.OrderStatusConfirmed)
	require.NoError(t, err)

	page := utils.PaginationParams{Page: 1, PerPage: 10, Sort: "created_at", Order: "desc"}

	orders, total, err := f.service.AdminList(context.Background(), AdminOrderFilter{PaginationParams: page})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)
	assert.NotNil(t, orders[0].User)

	confirmed := models.OrderStatusConfirmed
	orders, total, err = f.service.AdminList(context.Background(), AdminOrderFilter{PaginationParams: page, Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, first.ID, orders[0].ID)

	orders, total, err = f.service.AdminList(context.Background(), AdminOrderFilter{PaginationParams: page, UserID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, other.ID, orders[0].UserID)
}
