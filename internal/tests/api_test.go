// internal/tests/api_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/zoorkhan/storefront/internal/config"
	"github.com/zoorkhan/storefront/internal/database"
	"github.com/zoorkhan/storefront/internal/i18n"
	"github.com/zoorkhan/storefront/internal/models"
	"github.com/zoorkhan/storefront/internal/router"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-pass"
)

type APITestSuite struct {
	suite.Suite
	db         *gorm.DB
	router     *gin.Engine
	stop       func()
	adminToken string
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	require.NoError(suite.T(), i18n.Initialize("en"))

	cfg := &config.Config{
		Environment: "test",
		Database: config.DatabaseConfig{
			Driver:   config.DriverSQLite,
			Database: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
			LogLevel: "silent",
		},
		JWT:       config.JWTConfig{SecretKey: "api-test-secret", AccessTokenTTL: 1},
		Redis:     config.RedisConfig{TTL: 60},
		Upload:    config.UploadConfig{Dir: suite.T().TempDir(), PublicBaseURL: "http://localhost/uploads", MaxSizeMB: 1},
		I18n:      config.I18nConfig{DefaultLocale: "en"},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Admin:     config.AdminSeedConfig{Username: "admin", Email: adminEmail, Password: adminPassword},
	}

	db, err := database.Initialize(cfg.Database)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), database.RunMigrations(db))
	require.NoError(suite.T(), database.SeedInitialData(db, cfg.Admin))
	suite.db = db

	suite.router, suite.stop, err = router.Initialize(db, cfg, router.Dependencies{})
	require.NoError(suite.T(), err)

	suite.adminToken = suite.login(adminEmail, adminPassword)
}

func (suite *APITestSuite) TearDownSuite() {
	suite.stop()
	database.Close(suite.db)
}

func (suite *APITestSuite) request(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

func (suite *APITestSuite) login(email, password string) string {
	w := suite.request(http.MethodPost, "/api/auth/login", gin.H{"email": email, "password": password}, "")
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	return suite.decode(w)["access_token"].(string)
}

func (suite *APITestSuite) registerCustomer() string {
	name := "user_" + uuid.NewString()[:8]
	w := suite.request(http.MethodPost, "/api/auth/register", gin.H{
		"username":  name,
		"email":     name + "@example.com",
		"password":  "secret123",
		"full_name": "Test Customer",
	}, "")
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	return suite.decode(w)["access_token"].(string)
}

func (suite *APITestSuite) createCategory() uint {
	name := "Category " + uuid.NewString()[:8]
	w := suite.request(http.MethodPost, "/api/admin/categories", gin.H{
		"name":         name,
		"name_persian": name,
	}, suite.adminToken)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	return uint(suite.decode(w)["category"].(map[string]interface{})["id"].(float64))
}

func (suite *APITestSuite) createProduct(categoryID uint, name, price string, stock int) uint {
	w := suite.request(http.MethodPost, "/api/admin/products", gin.H{
		"name":           name,
		"name_persian":   name,
		"price":          json.RawMessage(price),
		"stock_quantity": stock,
		"category_id":    categoryID,
	}, suite.adminToken)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	return uint(suite.decode(w)["product"].(map[string]interface{})["id"].(float64))
}

func (suite *APITestSuite) stockOf(productID uint) int {
	var product models.Product
	require.NoError(suite.T(), suite.db.Unscoped().First(&product, productID).Error)
	return product.StockQuantity
}

func orderBody(items ...gin.H) gin.H {
	return gin.H{
		"items":            items,
		"shipping_address": "12 Valiasr St, Tehran",
		"phone":            "09120000000",
	}
}

func line(productID uint, quantity int) gin.H {
	return gin.H{"product_id": productID, "quantity": quantity}
}

func (suite *APITestSuite) TestHealth() {
	w := suite.request(http.MethodGet, "/health", nil, "")

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "healthy", suite.decode(w)["status"])
}

func (suite *APITestSuite) TestRegisterAndLogin() {
	w := suite.request(http.MethodPost, "/api/auth/register", gin.H{
		"username":  "sara_k",
		"email":     "Sara@Example.com",
		"password":  "secret123",
		"full_name": "Sara K",
	}, "")
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	response := suite.decode(w)
	assert.Equal(suite.T(), "Bearer", response["token_type"])
	user := response["user"].(map[string]interface{})
	assert.Equal(suite.T(), "sara@example.com", user["email"])
	assert.Equal(suite.T(), "customer", user["role"])
	assert.NotContains(suite.T(), user, "password_hash")

	token := suite.login("sara@example.com", "secret123")
	w = suite.request(http.MethodGet, "/api/auth/profile", nil, token)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, "/api/auth/register", gin.H{
		"username":  "sara_other",
		"email":     "sara@example.com",
		"password":  "secret123",
		"full_name": "Sara Again",
	}, "")
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "EMAIL_TAKEN", suite.decode(w)["code"])

	w = suite.request(http.MethodPost, "/api/auth/login", gin.H{"email": "sara@example.com", "password": "wrong-pass"}, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(suite.T(), "INVALID_CREDENTIALS", suite.decode(w)["code"])
}

func (suite *APITestSuite) TestRegisterValidation() {
	w := suite.request(http.MethodPost, "/api/auth/register", gin.H{
		"username": "x",
		"email":    "not-an-email",
		"password": "123",
	}, "")

	require.Equal(suite.T(), http.StatusBadRequest, w.Code)
	response := suite.decode(w)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response["code"])
	assert.NotEmpty(suite.T(), response["details"])
}

func (suite *APITestSuite) TestPlaceOrder() {
	categoryID := suite.createCategory()
	whey := suite.createProduct(categoryID, "Whey", "10.00", 5)
	bar := suite.createProduct(categoryID, "Bar", "2.50", 10)
	token := suite.registerCustomer()

	w := suite.request(http.MethodPost, "/api/orders", orderBody(line(whey, 2), line(bar, 3)), token)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	order := suite.decode(w)["order"].(map[string]interface{})
	assert.Equal(suite.T(), 27.5, order["total_amount"])
	assert.Equal(suite.T(), "pending", order["status"])
	assert.Len(suite.T(), order["order_items"], 2)
	assert.Equal(suite.T(), 3, suite.stockOf(whey))
	assert.Equal(suite.T(), 7, suite.stockOf(bar))

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/orders/%v", order["id"]), nil, token)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	other := suite.registerCustomer()
	w = suite.request(http.MethodGet, fmt.Sprintf("/api/orders/%v", order["id"]), nil, other)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/orders/%v", order["id"]), nil, suite.adminToken)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestPlaceOrderRejections() {
	categoryID := suite.createCategory()
	whey := suite.createProduct(categoryID, "Limited Whey", "10.00", 2)
	token := suite.registerCustomer()

	tests := []struct {
		name  string
		body  gin.H
		code  string
		index float64
	}{
		{"empty cart", orderBody(), "EMPTY_CART", -1},
		{"unknown product", orderBody(line(whey, 1), line(999999, 1)), "PRODUCT_NOT_FOUND", 1},
		{"zero quantity", orderBody(line(whey, 0)), "INVALID_QUANTITY", 0},
		{"too many", orderBody(line(whey, 3)), "INSUFFICIENT_STOCK", 0},
		{"duplicates add up", orderBody(line(whey, 1), line(whey, 2)), "INSUFFICIENT_STOCK", 1},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.request(http.MethodPost, "/api/orders", tt.body, token)
			require.Equal(suite.T(), http.StatusBadRequest, w.Code, w.Body.String())

			response := suite.decode(w)
			assert.Equal(suite.T(), tt.code, response["code"])
			if tt.index >= 0 {
				details := response["details"].(map[string]interface{})
				assert.Equal(suite.T(), tt.index, details["index"])
			}
		})
	}

	assert.Equal(suite.T(), 2, suite.stockOf(whey), "rejected carts leave stock untouched")

	w := suite.request(http.MethodPost, "/api/orders", orderBody(line(whey, 1)), "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestOrderStatusLifecycle() {
	categoryID := suite.createCategory()
	whey := suite.createProduct(categoryID, "Lifecycle Whey", "10.00", 4)
	token := suite.registerCustomer()

	w := suite.request(http.MethodPost, "/api/orders", orderBody(line(whey, 3)), token)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	orderPath := fmt.Sprintf("/api/admin/orders/%v", suite.decode(w)["order"].(map[string]interface{})["id"])

	w = suite.request(http.MethodPut, orderPath+"/status", gin.H{"status": "delivered"}, suite.adminToken)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "INVALID_TRANSITION", suite.decode(w)["code"])

	w = suite.request(http.MethodPut, orderPath+"/status", gin.H{"status": "bogus"}, suite.adminToken)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request(http.MethodPut, orderPath+"/status", gin.H{"status": "cancelled"}, suite.adminToken)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), 4, suite.stockOf(whey))

	var audits int64
	suite.db.Model(&models.AuditLog{}).Where("resource_type = ?", "orders").Count(&audits)
	assert.Positive(suite.T(), audits)
}

func (suite *APITestSuite) TestAdminRoutesRequireAdmin() {
	token := suite.registerCustomer()

	w := suite.request(http.MethodGet, "/api/admin/dashboard", nil, token)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.request(http.MethodGet, "/api/admin/dashboard", nil, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodGet, "/api/admin/dashboard", nil, suite.adminToken)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), suite.decode(w), "stats")
}

func (suite *APITestSuite) TestProductListingPagination() {
	categoryID := suite.createCategory()
	for i := 0; i < 3; i++ {
		suite.createProduct(categoryID, fmt.Sprintf("Paged %d", i), "5.00", 20)
	}

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/products?category_id=%d&per_page=2&page=2", categoryID), nil, "")
	require.Equal(suite.T(), http.StatusOK, w.Code)

	assert.Equal(suite.T(), "3", w.Header().Get("X-Total-Count"))
	assert.Equal(suite.T(), "2", w.Header().Get("X-Total-Pages"))
	assert.Equal(suite.T(), "2", w.Header().Get("X-Page"))

	response := suite.decode(w)
	assert.Len(suite.T(), response["products"], 1)
	assert.Equal(suite.T(), false, response["has_next"])
	assert.Equal(suite.T(), true, response["has_prev"])
}

func (suite *APITestSuite) TestProductValidation() {
	categoryID := suite.createCategory()

	w := suite.request(http.MethodPost, "/api/admin/products", gin.H{
		"name":         "Ghost",
		"name_persian": "Ghost",
		"price":        1,
		"category_id":  999999,
	}, suite.adminToken)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "CATEGORY_NOT_FOUND", suite.decode(w)["code"])

	w = suite.request(http.MethodPost, "/api/admin/products", gin.H{
		"name":         "Negative",
		"name_persian": "Negative",
		"price":        -1,
		"category_id":  categoryID,
	}, suite.adminToken)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_PRICE", suite.decode(w)["code"])
}

func (suite *APITestSuite) TestNewsletter() {
	email := "reader_" + uuid.NewString()[:8] + "@example.com"

	w := suite.request(http.MethodPost, "/api/newsletter/subscribe", gin.H{"email": email}, "")
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.request(http.MethodPost, "/api/newsletter/subscribe", gin.H{"email": email}, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, "/api/newsletter/unsubscribe", gin.H{"email": email}, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, "/api/newsletter/subscribe", gin.H{"email": email}, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request(http.MethodPost, "/api/newsletter/unsubscribe", gin.H{"email": "nobody@example.com"}, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestBlogPublishing() {
	w := suite.request(http.MethodPost, "/api/admin/blog", gin.H{
		"title":        "Creatine 101",
		"content":      "Loading phases explained.",
		"is_published": false,
	}, suite.adminToken)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	post := suite.decode(w)["post"].(map[string]interface{})
	assert.Equal(suite.T(), "creatine-101", post["slug"])

	w = suite.request(http.MethodGet, "/api/blog/creatine-101", nil, "")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code, "drafts stay hidden")

	w = suite.request(http.MethodPut, fmt.Sprintf("/api/admin/blog/%v", post["id"]), gin.H{"is_published": true}, suite.adminToken)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, "/api/blog/creatine-101", nil, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestLocalizedErrors() {
	req := httptest.NewRequest(http.MethodGet, "/api/products/999999?lang=fa", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	require.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), i18n.T("fa", i18n.KeyProductNotFound), suite.decode(w)["error"])
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
