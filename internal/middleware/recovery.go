package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic/pkg/httputil"
	"github.com/jwalitptl/vetclinic/pkg/logger"
)

// Recovery handles panics and logs them appropriately
func Recovery(fallback *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(c.Request.Context(), fallback).Error(
					fmt.Errorf("panic: %v", rec), "Request panic recovered",
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(ContextRequestID))

				c.AbortWithStatusJSON(http.StatusInternalServerError, httputil.Response{
					Error: &httputil.Error{
						Code:    http.StatusInternalServerError,
						Message: "internal server error",
						TraceID: c.GetString(ContextRequestID),
					},
				})
			}
		}()
		c.Next()
	}
}
