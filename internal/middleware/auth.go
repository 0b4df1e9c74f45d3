// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/zoorkhan/storefront/internal/i18n"
	"github.com/zoorkhan/storefront/internal/models"
	"github.com/zoorkhan/storefront/internal/services"
	"github.com/zoorkhan/storefront/internal/utils"
)

// IdentityResolver loads the account a token was issued for.
type IdentityResolver interface {
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
}

// Auth requires a valid bearer token whose user still exists and is active.
func Auth(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		user, err := resolver.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				utils.NotFoundResponse(c, i18n.KeyUserNotFound)
			} else {
				logrus.WithError(err).Error("Failed to resolve authenticated user")
				utils.InternalErrorResponse(c)
			}
			c.Abort()
			return
		}

		if !user.IsActive {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthAccountInactive))
			c.Abort()
			return
		}

		// The stored role wins over the claim so demotions apply immediately.
		c.Set(utils.ContextKeyUserID, user.ID)
		c.Set(utils.ContextKeyUsername, user.Username)
		c.Set(utils.ContextKeyRole, string(user.Role))
		c.Next()
	}
}

func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetRoleFromContext(c)
		for _, allowed := range roles {
			if role == string(allowed) {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, "")
		c.Abort()
	}
}
