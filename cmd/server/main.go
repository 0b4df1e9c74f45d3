// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zoorkhan/storefront/internal/cache"
	"github.com/zoorkhan/storefront/internal/config"
	"github.com/zoorkhan/storefront/internal/database"
	"github.com/zoorkhan/storefront/internal/events"
	"github.com/zoorkhan/storefront/internal/i18n"
	"github.com/zoorkhan/storefront/internal/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	configureLogging(cfg.Log)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	if err := database.SeedInitialData(db, cfg.Admin); err != nil {
		logrus.WithError(err).Fatal("Failed to seed initial data")
	}

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	appCache := newCache(cfg.Redis)
	defer appCache.Close()

	publisher := newPublisher(cfg.RabbitMQ)
	defer publisher.Close()

	// Initialize router
	r, stopLimiters, err := router.Initialize(db, cfg, router.Dependencies{
		Cache:     appCache,
		Publisher: publisher,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize router")
	}
	defer stopLimiters()

	// Create HTTP server
	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logrus.Info("Shutting down server...")
	case err := <-serverErr:
		logrus.WithError(err).Error("Server failed")
	}

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}

func configureLogging(cfg config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetOutput(os.Stdout)
}

// newCache falls back to a no-op cache when Redis is disabled or unreachable.
func newCache(cfg config.RedisConfig) cache.Cache {
	if !cfg.Enabled {
		return cache.Noop{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisCache, err := cache.NewRedis(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, caching disabled")
		return cache.Noop{}
	}
	return redisCache
}

// newPublisher falls back to discarding events when RabbitMQ is disabled or unreachable.
func newPublisher(cfg config.RabbitMQConfig) events.Publisher {
	if !cfg.Enabled {
		return events.Noop{}
	}

	publisher, err := events.NewRabbitMQ(cfg)
	if err != nil {
		logrus.WithError(err).Warn("RabbitMQ unavailable, order events disabled")
		return events.Noop{}
	}
	return publisher
}
