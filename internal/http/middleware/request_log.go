package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/pkg/reqctx"
)

// RequestLogger assigns each request a request id (reusing an inbound
// X-Request-Id if the caller already set one) and logs method, path,
// status, duration, and account id once the handler chain finishes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-Id", requestID)
		c.Request = c.Request.WithContext(reqctx.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		}
		if accountID := reqctx.AccountID(c.Request.Context()); accountID != "" {
			fields = append(fields, "account_id", accountID)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
