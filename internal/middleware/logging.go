package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		traceID := ""
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		logger.Info("HTTP request",
			zap.String("trace_id", traceID),
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_id", UserID(c)),
		)
	}
}

// AuditAdmin logs the outcome of an admin action once the handler has run.
func AuditAdmin(logger *zap.Logger, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("resource_id", c.Param("id")),
			zap.String("admin_id", UserID(c)),
			zap.Int("status", c.Writer.Status()),
		}
		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			logger.Info("🛡️ admin action", fields...)
		} else {
			logger.Warn("⚠️ admin action failed", fields...)
		}
	}
}
