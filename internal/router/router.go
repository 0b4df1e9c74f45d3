// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/zoorkhan/storefront/internal/cache"
	"github.com/zoorkhan/storefront/internal/config"
	"github.com/zoorkhan/storefront/internal/events"
	"github.com/zoorkhan/storefront/internal/handlers"
	"github.com/zoorkhan/storefront/internal/middleware"
	"github.com/zoorkhan/storefront/internal/models"
	"github.com/zoorkhan/storefront/internal/services"
	"github.com/zoorkhan/storefront/internal/utils"
)

// Dependencies are the external integrations the router hands to services.
type Dependencies struct {
	Cache     cache.Cache
	Publisher events.Publisher
}

// Initialize builds the HTTP engine. The returned stop function releases the rate limiters.
func Initialize(db *gorm.DB, cfg *config.Config, deps Dependencies) (*gin.Engine, func(), error) {
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	cacheTTL := time.Duration(cfg.Redis.TTL) * time.Second

	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, nil, err
	}

	authService := services.NewAuthService(db, cfg, deps.Cache)
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db, deps.Cache, cacheTTL)
	productService := services.NewProductService(db, deps.Cache)
	orderService := services.NewOrderService(db, deps.Publisher, deps.Cache)
	blogService := services.NewBlogService(db)
	newsletterService := services.NewNewsletterService(db)
	adminService := services.NewAdminService(db, deps.Cache, cacheTTL)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	productHandler := handlers.NewProductHandler(productService, storageService)
	orderHandler := handlers.NewOrderHandler(orderService)
	blogHandler := handlers.NewBlogHandler(blogService)
	newsletterHandler := handlers.NewNewsletterHandler(newsletterService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limits := newRateLimits(cfg.RateLimit)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(limits.general)

	r.GET("/health", healthHandler(db))

	if cfg.AWS.AccessKeyID == "" {
		r.Static("/uploads", cfg.Upload.Dir)
	}

	requireAuth := middleware.Auth(userService)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limits.auth, authHandler.Register)
			auth.POST("/login", limits.auth, authHandler.Login)
			auth.GET("/profile", requireAuth, authHandler.GetProfile)
			auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		}

		api.GET("/products", productHandler.GetProducts)
		api.GET("/products/:id", productHandler.GetProduct)
		api.GET("/categories", categoryHandler.GetCategories)

		orders := api.Group("/orders")
		orders.Use(requireAuth)
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.GetMyOrders)
			orders.GET("/:id", orderHandler.GetOrder)
		}

		api.GET("/blog", blogHandler.GetPosts)
		api.GET("/blog/:idOrSlug", blogHandler.GetPost)

		newsletter := api.Group("/newsletter")
		{
			newsletter.POST("/subscribe", newsletterHandler.Subscribe)
			newsletter.POST("/unsubscribe", newsletterHandler.Unsubscribe)
		}

		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireRole(models.RoleAdmin), middleware.AuditLogMiddleware(db))
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)

			admin.GET("/products", productHandler.AdminGetProducts)
			admin.POST("/products", productHandler.CreateProduct)
			admin.PUT("/products/:id", productHandler.UpdateProduct)
			admin.DELETE("/products/:id", productHandler.DeleteProduct)
			admin.POST("/products/:id/image", limits.upload, productHandler.UploadImage)

			admin.POST("/categories", categoryHandler.CreateCategory)
			admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
			admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

			admin.GET("/blog", blogHandler.AdminGetPosts)
			admin.POST("/blog", blogHandler.CreatePost)
			admin.PUT("/blog/:id", blogHandler.UpdatePost)
			admin.DELETE("/blog/:id", blogHandler.DeletePost)

			admin.GET("/orders", orderHandler.AdminGetOrders)
			admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
			admin.DELETE("/orders/:id", orderHandler.DeleteOrder)

			admin.GET("/users", userHandler.AdminGetUsers)
			admin.PUT("/users/:id/status", userHandler.UpdateUserStatus)

			admin.GET("/newsletter", newsletterHandler.AdminGetSubscribers)
		}
	}

	return r, limits.stop, nil
}

type rateLimits struct {
	general gin.HandlerFunc
	auth    gin.HandlerFunc
	upload  gin.HandlerFunc
	stop    func()
}

func newRateLimits(cfg config.RateLimitConfig) rateLimits {
	if !cfg.Enabled {
		pass := func(c *gin.Context) { c.Next() }
		return rateLimits{general: pass, auth: pass, upload: pass, stop: func() {}}
	}

	general := middleware.NewRateLimiter(rate.Limit(cfg.GeneralRPS), cfg.GeneralBurst)
	auth := middleware.PerMinute(cfg.AuthPerMinute, cfg.AuthBurst)
	upload := middleware.PerMinute(cfg.UploadPerMinute, cfg.UploadPerMinute)

	return rateLimits{
		general: general.Middleware(),
		auth:    auth.Middleware(),
		upload:  upload.Middleware(),
		stop: func() {
			general.Stop()
			auth.Stop()
			upload.Stop()
		},
	}
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "down",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "up",
		})
	}
}
