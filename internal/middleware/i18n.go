// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zoorkhan/storefront/internal/utils"
)

// I18nMiddleware picks the response language from the lang query parameter or Accept-Language.
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.Query("lang")
		if lang == "" {
			// Handle cases like "fa-IR,fa;q=0.9,en;q=0.8"
			lang = strings.Split(c.GetHeader("Accept-Language"), ",")[0]
			lang = strings.TrimSpace(strings.Split(lang, ";")[0])
		}

		c.Set(utils.ContextKeyLang, normalizeLang(lang, defaultLang))
		c.Next()
	}
}

func normalizeLang(lang, defaultLang string) string {
	switch strings.ToLower(lang) {
	case "fa", "fa-ir", "fa_ir", "per", "fas":
		return "fa"
	case "en", "en-us", "en-gb", "en_us":
		return "en"
	default:
		return defaultLang
	}
}
