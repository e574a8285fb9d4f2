package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	backoffice "github.com/brightpixel/backoffice"
	"github.com/brightpixel/backoffice/internal/content"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondEngineError maps engine and store errors onto HTTP statuses. 5xx
// causes get a generic message; the detailed error stays in the logs.
func respondEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, backoffice.ErrInvalidCredentials),
		errors.Is(err, backoffice.ErrUnauthorized),
		errors.Is(err, backoffice.ErrTokenInvalid),
		errors.Is(err, backoffice.ErrSessionNotFound),
		errors.Is(err, backoffice.ErrNotAuthenticated):
		respondError(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, backoffice.ErrNotSuperAdmin):
		respondError(c, http.StatusForbidden, "admin access required")
	case errors.Is(err, backoffice.ErrAccountInactive):
		respondError(c, http.StatusForbidden, "account inactive")
	case errors.Is(err, backoffice.ErrLoginRateLimited):
		respondError(c, http.StatusTooManyRequests, "too many attempts")
	case errors.Is(err, backoffice.ErrPasswordPolicy):
		respondError(c, http.StatusBadRequest, "password does not meet policy")
	case errors.Is(err, backoffice.ErrPasswordReuse):
		respondError(c, http.StatusBadRequest, "new password must differ from the current one")
	case errors.Is(err, content.ErrNotFound):
		respondError(c, http.StatusNotFound, "not found")
	case errors.Is(err, backoffice.ErrBackendUnavailable):
		respondError(c, http.StatusServiceUnavailable, "service unavailable")
	default:
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
