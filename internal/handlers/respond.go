package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "afisha/internal/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses. Anything unrecognized is
// a 500 and gets logged with the full cause; the client only sees a generic message.
func respondError(c *gin.Context, err error) {
	var insufficient *apperrors.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message":   "Insufficient wallet balance",
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrSoldOut),
		errors.Is(err, apperrors.ErrInvalidTier),
		errors.Is(err, apperrors.ErrEventNotBookable),
		errors.Is(err, apperrors.ErrEventAlreadyStarted),
		errors.Is(err, apperrors.ErrAlreadyCancelled),
		errors.Is(err, apperrors.ErrAlreadyCheckedIn),
		errors.Is(err, apperrors.ErrNotPending),
		errors.Is(err, apperrors.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		slog.Error("Request failed", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}
