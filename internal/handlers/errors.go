package handlers

import (
	"errors"
	"net/http"

	"listing-catalog/internal/lifecycle"
	"listing-catalog/internal/repository"

	"github.com/gin-gonic/gin"
)

// respondError maps the service error taxonomy onto HTTP statuses with a
// stable error kind plus a human-readable message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	case errors.Is(err, lifecycle.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": err.Error()})
	case errors.Is(err, lifecycle.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "message": err.Error()})
	}
}
