// Package cache stores read-mostly aggregates such as the category list and
// dashboard statistics.
package cache

import (
	"context"
	"time"
)

const (
	KeyCategories     = "storefront:categories"
	KeyDashboardStats = "storefront:dashboard"
)

type Cache interface {
	// GetJSON decodes the cached value into dest and reports whether the key was present.
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Noop is used when no cache backend is configured; every read is a miss.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, interface{}) (bool, error) { return false, nil }

func (Noop) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }

func (Noop) Close() error { return nil }
