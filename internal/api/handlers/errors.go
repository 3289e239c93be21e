package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"driftmarket/server/internal/apperrors"
)

// respondError maps domain error codes to HTTP statuses. Unknown errors are
// hidden behind a 500 so store internals never leak to clients.
func respondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	status := http.StatusInternalServerError

	switch code {
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeBlocked:
		status = http.StatusForbidden
	case apperrors.CodeInvalidArgument, apperrors.CodeInvalidAmount, apperrors.CodeInvalidExpiry:
		status = http.StatusBadRequest
	case apperrors.CodeInvalidTransition:
		status = http.StatusConflict
	case apperrors.CodeStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	if code == apperrors.CodeUnknown || code == apperrors.CodeInternal {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
