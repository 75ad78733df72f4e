package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger 访问日志，5xx 与 gin 错误写入 errorLog
func RequestLogger(infoLog, errorLog logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		entry := logrus.Fields{
			"trace_id":   c.GetString(TraceIDKey),
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
			"latency":    latency.String(),
			"user-agent": c.Request.UserAgent(),
		}

		switch {
		case len(c.Errors) > 0:
			errorLog.WithFields(entry).Error(c.Errors.String())
		case c.Writer.Status() >= 500:
			errorLog.WithFields(entry).Error("request failed")
		default:
			infoLog.WithFields(entry).Info("request completed")
		}
	}
}
