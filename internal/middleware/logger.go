package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/pkg/logger"
)

// Logger attaches a request-scoped logger to the request context and logs
// every request once it completes. Bodies are never logged since they
// carry clinical data.
func Logger(base *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		reqLog := base.WithFields(map[string]interface{}{
			"request_id": c.GetString(ContextRequestID),
		})
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))

		c.Next()

		statusCode := c.Writer.Status()
		zl := reqLog.Zerolog()
		event := zl.Info()
		msg := "Request processed"
		switch {
		case statusCode >= 500:
			event, msg = zl.Error(), "Server error"
		case statusCode >= 400:
			event, msg = zl.Warn(), "Client error"
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
