package utils

import (
	"errors"
	"net/http"

	"marketplace-recon-api/internal/constant"
)

// 统一响应格式（支持中英文提示）
type Response struct {
	Code    int         `json:"code"`
	Msg     string      `json:"msg"`              // 中文描述
	MsgEN   string      `json:"msg_en,omitempty"` // 英文描述
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// 成功响应
func Success(data interface{}) Response {
	return Response{
		Code:  constant.CodeSuccess,
		Msg:   "成功",
		MsgEN: "Success",
		Data:  data,
	}
}

// 错误响应（自动从 constant 中获取中英文描述）
func Error(code int) Response {
	if info, exists := constant.GetErrorInfo(code); exists {
		return Response{
			Code:  code,
			Msg:   info.CN,
			MsgEN: info.EN,
		}
	}
	return Response{
		Code:  code,
		Msg:   "未知错误",
		MsgEN: "Unknown error",
	}
}

// FromError 业务错误转响应，保留错误携带的数据与具体描述
func FromError(err error) Response {
	var ce *constant.CustomError
	if !errors.As(err, &ce) {
		return Error(constant.CodeSystemError)
	}
	resp := Error(ce.Code())
	if ce.Message() != "" {
		resp.Msg = ce.Message()
	}
	resp.Data = ce.Data()
	return resp
}

// HTTPStatus 错误类别 -> HTTP 状态码
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, constant.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, constant.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, constant.ErrLinkConflict):
		return http.StatusConflict
	case errors.Is(err, constant.ErrAmbiguousMatch):
		return http.StatusConflict
	case errors.Is(err, constant.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
