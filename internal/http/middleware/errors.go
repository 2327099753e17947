package middleware

import "github.com/gin-gonic/gin"

// Errors hands the last error attached with c.Error to onError once the
// rest of the chain has run, provided nothing has been written yet. This is
// how aborting middleware (rate limiting, body limits) and handlers that
// only call c.Error reach the error pipeline.
func Errors(onError ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		onError(c, c.Errors.Last().Err)
	}
}
