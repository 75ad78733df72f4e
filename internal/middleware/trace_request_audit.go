package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/idgen"
)

const (
	TraceIDKey    = "trace_id"
	TraceIDHeader = "X-Trace-ID"
	maxAuditBody  = 4096
)

// TraceAudit 生成 trace id；写操作（费率、规则、关联、入账）记录审计日志含请求体
func TraceAudit(auditLog logrus.FieldLogger, newID idgen.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = strconv.FormatUint(newID(), 10)
		}
		c.Set(TraceIDKey, traceID)
		c.Writer.Header().Set(TraceIDHeader, traceID)

		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}
		if len(body) > maxAuditBody {
			body = body[:maxAuditBody]
		}
		start := time.Now()

		c.Next()

		auditLog.WithFields(logrus.Fields{
			"trace_id":   traceID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"operator":   c.GetString(OperatorKey),
			"ip":         c.ClientIP(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"body":       string(body),
		}).Info("audit")
	}
}
