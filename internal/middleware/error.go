package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/pkg/httputil"
	"github.com/jwalitptl/vetclinic/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(fallback *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		log := logger.FromContext(c.Request.Context(), fallback)
		lastErr := c.Errors.Last()
		status := httputil.Status(lastErr.Err)
		if status >= 500 {
			log.Error(lastErr.Err, "Request error",
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"status", status)
		} else {
			log.Debug("Request rejected",
				"path", c.Request.URL.Path,
				"error", lastErr.Error(),
				"status", status)
		}

		if c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, lastErr.Err)
	}
}
