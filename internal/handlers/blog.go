// internal/handlers/blog.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/zoorkhan/storefront/internal/i18n"
	"github.com/zoorkhan/storefront/internal/services"
	"github.com/zoorkhan/storefront/internal/utils"
)

const (
	defaultPostsPerPage      = 6
	defaultAdminPostsPerPage = 20
)

type BlogHandler struct {
	blogService *services.BlogService
}

func NewBlogHandler(blogService *services.BlogService) *BlogHandler {
	return &BlogHandler{
		blogService: blogService,
	}
}

// GET /api/blog
func (h *BlogHandler) GetPosts(c *gin.Context) {
	h.listPosts(c, services.BlogListParams{
		PaginationParams: utils.GetPaginationParams(c, defaultPostsPerPage),
		PublishedOnly:    true,
	})
}

// GET /api/admin/blog
func (h *BlogHandler) AdminGetPosts(c *gin.Context) {
	h.listPosts(c, services.BlogListParams{
		PaginationParams: utils.GetPaginationParams(c, defaultAdminPostsPerPage),
	})
}

func (h *BlogHandler) listPosts(c *gin.Context, params services.BlogListParams) {
	posts, total, err := h.blogService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "posts", utils.CreatePaginationResult(posts, total, params.PaginationParams))
}

// GET /api/blog/:idOrSlug
func (h *BlogHandler) GetPost(c *gin.Context) {
	post, err := h.blogService.GetPublished(c.Request.Context(), c.Param("idOrSlug"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"post": post})
}

// POST /api/admin/blog
func (h *BlogHandler) CreatePost(c *gin.Context) {
	var req services.CreateBlogPostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.blogService.Create(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyBlogCreated),
		"post":    post,
	})
}

// PUT /api/admin/blog/:id
func (h *BlogHandler) UpdatePost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req services.UpdateBlogPostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.blogService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyBlogUpdated),
		"post":    post,
	})
}

// DELETE /api/admin/blog/:id
func (h *BlogHandler) DeletePost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.blogService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyBlogDeleted),
	})
}
