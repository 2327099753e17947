package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/tbourn/go-graceful-response/internal/pipeline"
)

// Locale parses Accept-Language and stores the preferred languages in the
// request context, where the exception processor picks translated messages.
// Malformed headers are ignored.
func Locale() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h := c.GetHeader("Accept-Language"); h != "" {
			if tags, _, err := language.ParseAcceptLanguage(h); err == nil && len(tags) > 0 {
				c.Request = c.Request.WithContext(pipeline.WithLocale(c.Request.Context(), tags...))
			}
		}
		c.Next()
	}
}
