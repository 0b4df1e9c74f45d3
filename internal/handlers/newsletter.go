// internal/handlers/newsletter.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zoorkhan/storefront/internal/i18n"
	"github.com/zoorkhan/storefront/internal/services"
	"github.com/zoorkhan/storefront/internal/utils"
)

const defaultSubscribersPerPage = 50

type NewsletterHandler struct {
	newsletterService *services.NewsletterService
}

func NewNewsletterHandler(newsletterService *services.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{
		newsletterService: newsletterService,
	}
}

// POST /api/newsletter/subscribe
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.NewsletterRequest
	if !bindJSON(c, &req) {
		return
	}

	subscription, outcome, err := h.newsletterService.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	switch outcome {
	case services.Subscribed:
		utils.CreatedResponse(c, gin.H{
			"message":      i18n.T(lang, i18n.KeyNewsletterSubscribed),
			"subscription": subscription,
		})
	case services.Reactivated:
		utils.SuccessResponse(c, gin.H{
			"message":      i18n.T(lang, i18n.KeyNewsletterReactivated),
			"subscription": subscription,
		})
	default:
		utils.SuccessResponse(c, gin.H{
			"message":      i18n.T(lang, i18n.KeyNewsletterAlreadySubscribed),
			"subscription": subscription,
		})
	}
}

// POST /api/newsletter/unsubscribe
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	var req services.NewsletterRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.newsletterService.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyNewsletterUnsubscribed),
	})
}

// GET /api/admin/newsletter
func (h *NewsletterHandler) AdminGetSubscribers(c *gin.Context) {
	filter := services.NewsletterFilter{
		PaginationParams: utils.GetPaginationParams(c, defaultSubscribersPerPage),
	}
	if activeStr := c.Query("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.IsActive = &active
		}
	}

	subscribers, total, err := h.newsletterService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "subscribers", utils.CreatePaginationResult(subscribers, total, filter.PaginationParams))
}
