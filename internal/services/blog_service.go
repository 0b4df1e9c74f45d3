// internal/services/blog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/zoorkhan/storefront/internal/models"
	"github.com/zoorkhan/storefront/internal/utils"
)

type BlogService struct {
	db *gorm.DB
}

type BlogListParams struct {
	utils.PaginationParams
	// PublishedOnly hides drafts; the admin listing leaves it false.
	PublishedOnly bool
}

type CreateBlogPostRequest struct {
	Title           string `json:"title" validate:"required,notblank,max=200"`
	TitlePersian    string `json:"title_persian" validate:"max=200"`
	Content         string `json:"content" validate:"required,notblank"`
	ContentPersian  string `json:"content_persian"`
	Excerpt         string `json:"excerpt"`
	ExcerptPersian  string `json:"excerpt_persian"`
	ImageURL        string `json:"image_url" validate:"omitempty,max=500"`
	IsPublished     bool   `json:"is_published"`
	MetaTitle       string `json:"meta_title" validate:"max=200"`
	MetaDescription string `json:"meta_description" validate:"max=300"`
	Slug            string `json:"slug" validate:"max=200"`
}

type UpdateBlogPostRequest struct {
	Title           *string `json:"title" validate:"omitempty,notblank,max=200"`
	TitlePersian    *string `json:"title_persian" validate:"omitempty,max=200"`
	Content         *string `json:"content" validate:"omitempty,notblank"`
	ContentPersian  *string `json:"content_persian"`
	Excerpt         *string `json:"excerpt"`
	ExcerptPersian  *string `json:"excerpt_persian"`
	ImageURL        *string `json:"image_url" validate:"omitempty,max=500"`
	IsPublished     *bool   `json:"is_published"`
	MetaTitle       *string `json:"meta_title" validate:"omitempty,max=200"`
	MetaDescription *string `json:"meta_description" validate:"omitempty,max=300"`
	Slug            *string `json:"slug" validate:"omitempty,notblank,max=200"`
}

func NewBlogService(db *gorm.DB) *BlogService {
	return &BlogService{
		db: db,
	}
}

func (s *BlogService) List(ctx context.Context, params BlogListParams) ([]models.BlogPost, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.BlogPost{})

	if params.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		searchTerm := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(title_persian) LIKE ? OR LOWER(excerpt) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count blog posts: %w", err)
	}

	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "updated_at", "title"})
	query = utils.ApplyPagination(query, params.PaginationParams)

	var posts []models.BlogPost
	if err := query.Preload("Author").Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch blog posts: %w", err)
	}

	return posts, total, nil
}

// GetPublished looks a post up by numeric id or by slug. Drafts are reported as not found.
func (s *BlogService) GetPublished(ctx context.Context, idOrSlug string) (*models.BlogPost, error) {
	query := s.db.WithContext(ctx).Preload("Author").Where("is_published = ?", true)

	if id, err := strconv.ParseUint(idOrSlug, 10, 64); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("slug = ?", idOrSlug)
	}

	var post models.BlogPost
	if err := query.First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &post, nil
}

func (s *BlogService) Get(ctx context.Context, id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := s.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &post, nil
}

func (s *BlogService) Create(ctx context.Context, authorID uint, req *CreateBlogPostRequest) (*models.BlogPost, error) {
	slugSource := req.Slug
	if strings.TrimSpace(slugSource) == "" {
		slugSource = req.Title
	}
	slug, err := utils.Slugify(slugSource)
	if err != nil {
		return nil, fmt.Errorf("failed to generate slug: %w", err)
	}
	if err := s.ensureSlugFree(ctx, slug, 0); err != nil {
		return nil, err
	}

	post := &models.BlogPost{
		Title:           strings.TrimSpace(req.Title),
		TitlePersian:    strings.TrimSpace(req.TitlePersian),
		Content:         req.Content,
		ContentPersian:  req.ContentPersian,
		Excerpt:         req.Excerpt,
		ExcerptPersian:  req.ExcerptPersian,
		ImageURL:        req.ImageURL,
		AuthorID:        authorID,
		IsPublished:     req.IsPublished,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		Slug:            slug,
	}

	if err := s.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create blog post: %w", err)
	}

	return s.Get(ctx, post.ID)
}

func (s *BlogService) Update(ctx context.Context, id uint, req *UpdateBlogPostRequest) (*models.BlogPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = *value
		}
	}
	setString("title", req.Title)
	setString("title_persian", req.TitlePersian)
	setString("content", req.Content)
	setString("content_persian", req.ContentPersian)
	setString("excerpt", req.Excerpt)
	setString("excerpt_persian", req.ExcerptPersian)
	setString("image_url", req.ImageURL)
	setString("meta_title", req.MetaTitle)
	setString("meta_description", req.MetaDescription)

	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}
	if req.Slug != nil {
		slug, err := utils.Slugify(*req.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to generate slug: %w", err)
		}
		if slug != post.Slug {
			if err := s.ensureSlugFree(ctx, slug, post.ID); err != nil {
				return nil, err
			}
			updates["slug"] = slug
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(post).Omit("Author").Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrSlugTaken
			}
			return nil, fmt.Errorf("failed to update blog post: %w", err)
		}
	}

	return s.Get(ctx, id)
}

func (s *BlogService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.BlogPost{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete blog post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *BlogService) ensureSlugFree(ctx context.Context, slug string, exceptID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.BlogPost{}).
		Where("slug = ? AND id <> ?", slug, exceptID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return ErrSlugTaken
	}
	return nil
}
