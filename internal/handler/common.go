package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/middleware"
	"marketplace-recon-api/internal/utils"
)

func ok(c *gin.Context, data interface{}) {
	resp := utils.Success(data)
	resp.TraceID = c.GetString(middleware.TraceIDKey)
	c.JSON(http.StatusOK, resp)
}

// fail 错误码 -> HTTP 状态（校验 400，冲突 409，不存在 404）
func fail(c *gin.Context, err error) {
	resp := utils.FromError(err)
	resp.TraceID = c.GetString(middleware.TraceIDKey)
	c.JSON(utils.HTTPStatus(err), resp)
}

func badRequest(c *gin.Context, err error) {
	fail(c, constant.Errorf(constant.CodeParamsFormatError, "%v", err))
}

func operator(c *gin.Context) string {
	if op := c.GetString(middleware.OperatorKey); op != "" {
		return op
	}
	return "internal"
}

func pathID(c *gin.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, constant.Errorf(constant.CodeParamsFormatError, "invalid %s: %s", name, c.Param(name))
	}
	return id, nil
}
