package api

import (
	"errors"
	"net/http"

	"ledger/config"
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情，避免信息泄露
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// statusOf 业务错误对应的 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyPaid), errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messageOf 业务错误直接返回给用户，其余错误按运行模式隐藏细节
func messageOf(err error, fallback string) string {
	if statusOf(err) == http.StatusInternalServerError {
		return SafeErrorMessage(err, fallback)
	}
	return err.Error()
}

// respondError 按错误类型返回 JSON 错误
func respondError(c *gin.Context, err error, fallback string) {
	Error(c, statusOf(err), messageOf(err, fallback))
}
