package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// Error writes a structured error response. PortalError values map to
// their HTTP status; anything else becomes an opaque 500.
func Error(c *gin.Context, log *logger.Logger, err error) {
	var portalErr *types.PortalError
	if errors.As(err, &portalErr) {
		c.JSON(StatusForType(portalErr.Type), gin.H{
			"error":   portalErr.Code,
			"message": portalErr.Message,
			"details": portalErr.Details,
		})
		return
	}

	log.WithError(err).Error("Internal server error")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   types.ErrCodeInternalError,
		"message": "An internal error occurred",
	})
}

// StatusForType maps error categories to HTTP status codes
func StatusForType(errorType types.ErrorType) int {
	switch errorType {
	case types.ErrorTypeValidation:
		return http.StatusBadRequest
	case types.ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case types.ErrorTypeAuthorization:
		return http.StatusForbidden
	case types.ErrorTypeNotFound:
		return http.StatusNotFound
	case types.ErrorTypeConflict:
		return http.StatusConflict
	case types.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
