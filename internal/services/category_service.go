// internal/services/category_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/zoorkhan/storefront/internal/cache"
	"github.com/zoorkhan/storefront/internal/models"
)

type CategoryService struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	NamePersian string `json:"name_persian" validate:"required,notblank,max=100"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	NamePersian *string `json:"name_persian" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description"`
}

func NewCategoryService(db *gorm.DB, c cache.Cache, ttl time.Duration) *CategoryService {
	return &CategoryService{
		db:    db,
		cache: c,
		ttl:   ttl,
	}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if hit, err := s.cache.GetJSON(ctx, cache.KeyCategories, &categories); err != nil {
		logrus.WithError(err).Warn("Category cache read failed")
	} else if hit {
		return categories, nil
	}

	if err := s.db.WithContext(ctx).Order("name").Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	if err := s.cache.SetJSON(ctx, cache.KeyCategories, categories, s.ttl); err != nil {
		logrus.WithError(err).Warn("Category cache write failed")
	}

	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &category, nil
}

func (s *CategoryService) Create(ctx context.Context, req *CategoryRequest) (*models.Category, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		NamePersian: strings.TrimSpace(req.NamePersian),
		Description: strings.TrimSpace(req.Description),
	}

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidate(ctx)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, req *UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.NamePersian != nil {
		updates["name_persian"] = strings.TrimSpace(*req.NamePersian)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update category: %w", err)
		}
		s.invalidate(ctx)
	}

	return s.Get(ctx, id)
}

// Delete soft-deletes a category that no active product references.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var active int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ? AND is_active = ?", id, true).
		Count(&active).Error; err != nil {
		return fmt.Errorf("failed to count category products: %w", err)
	}
	if active > 0 {
		return ErrCategoryInUse
	}

	if err := s.db.WithContext(ctx).Delete(category).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.KeyCategories); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate category cache")
	}
}
