package constant

import (
	"errors"
	"fmt"
)

// Error 错误接口
type Error interface {
	error
	Code() int
	Message() string
	Data() interface{}
	WithData(data interface{}) Error
}

// CustomError 自定义错误实现
type CustomError struct {
	code    int
	message string
	data    interface{}
	cause   error
}

func (e *CustomError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("code: %d, message: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("code: %d, message: %s", e.code, e.message)
}

func (e *CustomError) Code() int {
	return e.code
}

func (e *CustomError) Message() string {
	return e.message
}

func (e *CustomError) Data() interface{} {
	return e.data
}

// WithData 返回携带附加数据的副本，哨兵错误不会被修改
func (e *CustomError) WithData(data interface{}) Error {
	cp := *e
	cp.data = data
	return &cp
}

func (e *CustomError) Unwrap() error {
	return e.cause
}

// Is 同码或子码归属同一类别即视为匹配，便于 errors.Is(err, ErrValidation)
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	if t.code == e.code {
		return true
	}
	return Category(e.code) == t.code
}

// 子码 -> 类别码
var categories = map[int]int{
	CodeMissingParams:      CodeInvalidParams,
	CodeParamsFormatError:  CodeInvalidParams,
	CodeParamsRangeError:   CodeInvalidParams,
	CodeRuleInvalid:        CodeInvalidParams,
	CodeFeePeriodOverlap:   CodeInvalidParams,
	CodeMarketplaceUnknown: CodeInvalidParams,

	CodeLinkNotFound:         CodeNotFound,
	CodeErpOrderNotFound:     CodeNotFound,
	CodeFeePeriodNotFound:    CodeNotFound,
	CodeRuleNotFound:         CodeNotFound,
	CodePaymentRecordMissing: CodeNotFound,

	CodeUpstreamTimeout:      CodeUpstreamError,
	CodeUpstreamTokenExpired: CodeUpstreamError,
	CodeUpstreamRateLimit:    CodeUpstreamError,
	CodeUpstreamCircuitOpen:  CodeUpstreamError,
}

// Category 返回错误码所属类别，未登记的返回自身
func Category(code int) int {
	if c, ok := categories[code]; ok {
		return c
	}
	return code
}

// NewError 创建错误
func NewError(code int) Error {
	if info, exists := ErrorMessages[code]; exists {
		return &CustomError{code: code, message: info.CN}
	}
	return &CustomError{code: code, message: "未知错误"}
}

// Errorf 创建带具体描述的错误
func Errorf(code int, format string, args ...interface{}) Error {
	return &CustomError{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误，保留 cause 供 errors.Is / errors.As 继续匹配
func Wrap(code int, err error) Error {
	e := NewError(code).(*CustomError)
	e.cause = err
	return e
}

// CodeOf 取错误码，非 CustomError 返回 CodeSystemError
func CodeOf(err error) int {
	if err == nil {
		return CodeSuccess
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.code
	}
	return CodeSystemError
}

// GetErrorInfo 获取错误信息
func GetErrorInfo(code int) (ErrorInfo, bool) {
	info, exists := ErrorMessages[code]
	return info, exists
}

// 哨兵错误，仅用于 errors.Is 比较
var (
	ErrValidation        = NewError(CodeInvalidParams)
	ErrNotFound          = NewError(CodeNotFound)
	ErrDatabase          = NewError(CodeDatabaseError)
	ErrLinkConflict      = NewError(CodeLinkConflict)
	ErrAmbiguousMatch    = NewError(CodeAmbiguousMatch)
	ErrUpstream          = NewError(CodeUpstreamError)
	ErrToleranceMismatch = NewError(CodeToleranceMismatch)
)
