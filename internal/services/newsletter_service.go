// internal/services/newsletter_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/zoorkhan/storefront/internal/models"
	"github.com/zoorkhan/storefront/internal/utils"
)

// SubscribeOutcome tells the caller which of the three subscribe paths was taken.
type SubscribeOutcome int

const (
	Subscribed SubscribeOutcome = iota
	AlreadySubscribed
	Reactivated
)

type NewsletterService struct {
	db *gorm.DB
}

type NewsletterRequest struct {
	Email string `json:"email" validate:"required,email,max=120"`
}

type NewsletterFilter struct {
	utils.PaginationParams
	IsActive *bool
}

func NewNewsletterService(db *gorm.DB) *NewsletterService {
	return &NewsletterService{
		db: db,
	}
}

func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*models.Newsletter, SubscribeOutcome, error) {
	email = normalizeEmail(email)

	var subscription models.Newsletter
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&subscription).Error
	switch {
	case err == nil:
		if subscription.IsActive {
			return &subscription, AlreadySubscribed, nil
		}
		if err := s.db.WithContext(ctx).Model(&subscription).Update("is_active", true).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to reactivate subscription: %w", err)
		}
		return &subscription, Reactivated, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		subscription = models.Newsletter{Email: email, IsActive: true}
		if err := s.db.WithContext(ctx).Create(&subscription).Error; err != nil {
			// A concurrent subscribe for the same address won the insert.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &subscription, AlreadySubscribed, nil
			}
			return nil, 0, fmt.Errorf("failed to create subscription: %w", err)
		}
		return &subscription, Subscribed, nil

	default:
		return nil, 0, fmt.Errorf("database error: %w", err)
	}
}

func (s *NewsletterService) Unsubscribe(ctx context.Context, email string) error {
	result := s.db.WithContext(ctx).Model(&models.Newsletter{}).
		Where("email = ?", normalizeEmail(email)).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *NewsletterService) List(ctx context.Context, filter NewsletterFilter) ([]models.Newsletter, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Newsletter{})

	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("email LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "email"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var subscriptions []models.Newsletter
	if err := query.Find(&subscriptions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}

	return subscriptions, total, nil
}
