package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/utils"
)

func Recover(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"trace_id": c.GetString(TraceIDKey),
					"path":     c.Request.URL.Path,
					"panic":    r,
				}).Error(string(debug.Stack()))
				resp := utils.Error(constant.CodeSystemError)
				resp.TraceID = c.GetString(TraceIDKey)
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		c.Next()
	}
}
