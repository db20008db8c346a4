package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/phase"
	"github.com/Valentine-Efagene/real-estate-sub006/internal/repository"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				HandleServiceError(c, err.Err)
			}
		}
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// HandleServiceError 将服务层类型化错误映射为 HTTP 响应
// 未识别的错误一律按 500 处理,不向客户端泄漏内部细节
func HandleServiceError(c *gin.Context, err error) {
	var (
		validationErr *phase.ValidationError
		transitionErr *phase.InvalidTransitionError
		notFoundErr   *phase.NotFoundError
		forbiddenErr  *phase.ForbiddenError
		conflictErr   *phase.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		Error(c, http.StatusBadRequest, "validation failed", validationErr.Error())
	case errors.As(err, &transitionErr):
		Error(c, http.StatusBadRequest, "invalid state transition", transitionErr.Error())
	case errors.As(err, &notFoundErr):
		Error(c, http.StatusNotFound, "resource not found", notFoundErr.Error())
	case errors.As(err, &forbiddenErr):
		Error(c, http.StatusForbidden, "forbidden", forbiddenErr.Error())
	case errors.As(err, &conflictErr):
		Error(c, http.StatusConflict, "conflict", conflictErr.Error())
	case errors.Is(err, repository.ErrDuplicateReceipt):
		Error(c, http.StatusConflict, "conflict", err.Error())
	default:
		Error(c, http.StatusInternalServerError, "internal server error", err.Error())
	}
}
