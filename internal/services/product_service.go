// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zoorkhan/storefront/internal/cache"
	"github.com/zoorkhan/storefront/internal/models"
	"github.com/zoorkhan/storefront/internal/utils"
)

type ProductService struct {
	db    *gorm.DB
	cache cache.Cache
}

type ProductSearchParams struct {
	utils.PaginationParams
	CategoryID *uint
	// IsActive filters by visibility; nil returns every product (admin listing).
	IsActive *bool
}

type CreateProductRequest struct {
	Name                 string           `json:"name" validate:"required,notblank,max=200"`
	NamePersian          string           `json:"name_persian" validate:"required,notblank,max=200"`
	Description          string           `json:"description"`
	DescriptionPersian   string           `json:"description_persian"`
	Price                *decimal.Decimal `json:"price" validate:"required"`
	StockQuantity        int              `json:"stock_quantity" validate:"gte=0"`
	ImageURL             string           `json:"image_url" validate:"omitempty,url,max=500"`
	CategoryID           uint             `json:"category_id" validate:"required"`
	IsActive             *bool            `json:"is_active"`
	Brand                string           `json:"brand" validate:"max=100"`
	Weight               string           `json:"weight" validate:"max=50"`
	ServingSize          string           `json:"serving_size" validate:"max=50"`
	ServingsPerContainer int              `json:"servings_per_container" validate:"gte=0"`
	Ingredients          string           `json:"ingredients"`
	UsageInstructions    string           `json:"usage_instructions"`
	Warnings             string           `json:"warnings"`
}

type UpdateProductRequest struct {
	Name                 *string          `json:"name" validate:"omitempty,notblank,max=200"`
	NamePersian          *string          `json:"name_persian" validate:"omitempty,notblank,max=200"`
	Description          *string          `json:"description"`
	DescriptionPersian   *string          `json:"description_persian"`
	Price                *decimal.Decimal `json:"price"`
	StockQuantity        *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	ImageURL             *string          `json:"image_url" validate:"omitempty,max=500"`
	CategoryID           *uint            `json:"category_id" validate:"omitempty,gt=0"`
	IsActive             *bool            `json:"is_active"`
	Brand                *string          `json:"brand" validate:"omitempty,max=100"`
	Weight               *string          `json:"weight" validate:"omitempty,max=50"`
	ServingSize          *string          `json:"serving_size" validate:"omitempty,max=50"`
	ServingsPerContainer *int             `json:"servings_per_container" validate:"omitempty,gte=0"`
	Ingredients          *string          `json:"ingredients"`
	UsageInstructions    *string          `json:"usage_instructions"`
	Warnings             *string          `json:"warnings"`
}

func NewProductService(db *gorm.DB, c cache.Cache) *ProductService {
	return &ProductService{
		db:    db,
		cache: c,
	}
}

func (s *ProductService) List(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		searchTerm := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(name_persian) LIKE ? OR LOWER(description) LIKE ? OR LOWER(description_persian) LIKE ?",
			searchTerm, searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "price", "name", "stock_quantity"})
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Preload("Category").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// Get returns a product. Inactive products are only visible when includeInactive is set.
func (s *ProductService) Get(ctx context.Context, id uint, includeInactive bool) (*models.Product, error) {
	query := s.db.WithContext(ctx).Preload("Category")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var product models.Product
	if err := query.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) Create(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	product := &models.Product{
		Name:                 strings.TrimSpace(req.Name),
		NamePersian:          strings.TrimSpace(req.NamePersian),
		Description:          req.Description,
		DescriptionPersian:   req.DescriptionPersian,
		Price:                req.Price.Round(2),
		StockQuantity:        req.StockQuantity,
		ImageURL:             req.ImageURL,
		CategoryID:           req.CategoryID,
		IsActive:             isActive,
		Brand:                req.Brand,
		Weight:               req.Weight,
		ServingSize:          req.ServingSize,
		ServingsPerContainer: req.ServingsPerContainer,
		Ingredients:          req.Ingredients,
		UsageInstructions:    req.UsageInstructions,
		Warnings:             req.Warnings,
	}

	if err := s.db.WithContext(ctx).Omit("Category").Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	invalidateDashboard(ctx, s.cache)

	return s.Get(ctx, product.ID, true)
}

func (s *ProductService) Update(ctx context.Context, id uint, req *UpdateProductRequest) (*models.Product, error) {
	product, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setString("name", req.Name)
	setString("name_persian", req.NamePersian)
	setString("description", req.Description)
	setString("description_persian", req.DescriptionPersian)
	setString("image_url", req.ImageURL)
	setString("brand", req.Brand)
	setString("weight", req.Weight)
	setString("serving_size", req.ServingSize)
	setString("ingredients", req.Ingredients)
	setString("usage_instructions", req.UsageInstructions)
	setString("warnings", req.Warnings)

	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		updates["price"] = req.Price.Round(2)
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.ServingsPerContainer != nil {
		updates["servings_per_container"] = *req.ServingsPerContainer
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Omit("Category").Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
		invalidateDashboard(ctx, s.cache)
	}

	return s.Get(ctx, id, true)
}

// Delete soft-deletes the product; past order items keep referencing it.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	invalidateDashboard(ctx, s.cache)
	return nil
}

func (s *ProductService) SetImage(ctx context.Context, id uint, imageURL string) (*models.Product, error) {
	result := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("image_url", imageURL)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update product image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrProductNotFound
	}
	return s.Get(ctx, id, true)
}

func (s *ProductService) ensureCategory(ctx context.Context, categoryID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
