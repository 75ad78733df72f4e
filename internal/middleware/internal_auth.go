package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/utils"
)

const (
	TokenHeader    = "X-Internal-Token"
	OperatorHeader = "X-Operator"
	OperatorKey    = "operator"
)

// InternalAuth 内部管理接口：token 校验 + 仅允许内网来源
func InternalAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(TokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.Error(constant.CodeUnauthorized))
			return
		}

		ip := c.ClientIP()
		if !isInternalIP(ip) {
			resp := utils.Error(constant.CodeAccessDenied)
			resp.Msg = resp.Msg + ": " + ip
			c.AbortWithStatusJSON(http.StatusForbidden, resp)
			return
		}

		operator := strings.TrimSpace(c.GetHeader(OperatorHeader))
		if operator == "" {
			operator = "internal"
		}
		c.Set(OperatorKey, operator)
		c.Next()
	}
}

func isInternalIP(s string) bool {
	ip := net.ParseIP(s)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
