package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/msa-market-engine/internal/errors"
)

// statusForCode maps AppError codes onto HTTP statuses
func statusForCode(code string) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeValidationError:
		return http.StatusBadRequest
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes an AppError envelope. Internal causes are never
// echoed to the client.
func respondError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.InternalError("internal server error", err)
	}

	status := statusForCode(appErr.Code)
	body := gin.H{
		"error":     appErr.Message,
		"code":      appErr.Code,
		"timestamp": time.Now(),
	}
	if appErr.Details != "" && status < http.StatusInternalServerError {
		body["details"] = appErr.Details
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, body)
}

// badRequest answers a request that could not be bound
func badRequest(c *gin.Context, message string, err error) {
	respondError(c, errors.InvalidInput(message, err).WithDetails(err.Error()))
}

// respond writes a success envelope stamped with the current time
func respond(c *gin.Context, status int, body gin.H) {
	body["timestamp"] = time.Now()
	c.JSON(status, body)
}
