package handlers

import (
	"net/http"

	"github.com/bscott89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// 400s carry a structured error body; auth and lookup failures stay
// deliberately bare so nothing internal leaks.

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondInvalidOperation(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_operation", message, details)
}

func RespondUnauthorized(ctx *gin.Context) {
	ctx.AbortWithStatus(http.StatusUnauthorized)
}

func RespondNotFound(ctx *gin.Context) {
	ctx.Status(http.StatusNotFound)
}

func RespondInternal(ctx *gin.Context) {
	ctx.Status(http.StatusInternalServerError)
}
