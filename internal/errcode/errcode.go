package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误码约定：
// - 0：无错误
// - 4xxx：调用方可修正的业务错误（校验、权限、状态冲突）
// - 5xxx：系统错误或依赖不可用
const (
	OK           = 0
	Validation   = 4000
	Precondition = 4001
	Forbidden    = 4003
	NotFound     = 4004
	Conflict     = 4009
	InvalidState = 4022
	SystemError  = 5000
	Unavailable  = 5003
)

// FieldError 描述单个字段的校验失败。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 是各业务包统一返回的错误类型，Code 取上方常量。
type Error struct {
	Code    int
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New 构造不带底层原因的错误。
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf 与 New 相同，但支持格式化消息。
func Newf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 保留底层错误，便于日志排查；对外只暴露 Message。
func Wrap(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Invalid 汇总字段级校验错误，Message 取第一个字段的描述。
func Invalid(fields ...FieldError) *Error {
	msg := "validation failed"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &Error{Code: Validation, Message: msg, Fields: fields}
}

// CodeOf 返回错误链中第一个 *Error 的错误码；未知错误视为 SystemError。
func CodeOf(err error) int {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return SystemError
}

// Is 判断错误码是否匹配。
func Is(err error, code int) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus 将错误码映射为 HTTP 状态码。
func HTTPStatus(code int) int {
	switch code {
	case OK:
		return http.StatusOK
	case Validation, Precondition:
		return http.StatusBadRequest
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case InvalidState:
		return http.StatusUnprocessableEntity
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
