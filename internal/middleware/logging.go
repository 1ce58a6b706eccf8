package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"civictrack/internal/logger"
)

// RequestLogger writes one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}
		if uid, ok := UserIDFromContext(c.Request.Context()); ok {
			fields["user_id"] = uid
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields)
		default:
			logger.Debug("request", fields)
		}
	}
}

func logPanic(r *http.Request, rec any) {
	logger.Error("panic", map[string]any{
		"path":  r.URL.Path,
		"panic": fmt.Sprint(rec),
	})
}
