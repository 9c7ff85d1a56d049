package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/eco-fund-ledger/internal/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into the 500 envelope. Nothing is written when the
// handler already sent its headers.
func Recovery(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.FromContext(c.Request.Context(), base).Error("Panic recovered",
				"error", r,
				"stack", string(debug.Stack()),
				"route", c.FullPath(),
				"method", c.Request.Method,
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			body := gin.H{"error": gin.H{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": "An internal server error occurred",
			}}
			if id := GetCorrelationID(c); id != "" {
				body["correlation_id"] = id
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		c.Next()
	}
}
