package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jobportal/internal/api/middleware"
	"jobportal/internal/auth"
	"jobportal/internal/errcode"
)

type errorBody struct {
	Error  string               `json:"error"`
	Code   int                  `json:"code,omitempty"`
	Fields []errcode.FieldError `json:"fields,omitempty"`
}

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, errorBody{Error: msg})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// RespondError 把业务错误映射为 HTTP 响应；未知错误统一返回 500 且不暴露细节。
func RespondError(c *gin.Context, err error) {
	var e *errcode.Error
	if !errors.As(err, &e) {
		_ = c.Error(err)
		loggerFor(c).Error("unhandled error", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	status := errcode.HTTPStatus(e.Code)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, errorBody{Error: e.Message, Code: e.Code, Fields: e.Fields})
}

// bindJSON 解析请求体，失败时直接写 400。
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// idParam 解析路径中的正整数 ID。
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		RespondError(c, errcode.Newf(errcode.NotFound, "Resource not found with id of %s", c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// queryUint 解析可选的正整数查询参数；缺失时返回 0，非法时写 400。
func queryUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		RespondError(c, errcode.Invalid(errcode.FieldError{Field: name, Message: name + " must be a positive integer"}))
		return 0, false
	}
	return uint(v), true
}

func loggerFor(c *gin.Context) *slog.Logger {
	return middleware.LoggerFromContext(c)
}

// currentIdentity 读取已认证身份，缺失时写 401。
func currentIdentity(c *gin.Context) (auth.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		Unauthorized(c)
		return auth.Identity{}, false
	}
	return identity, true
}
