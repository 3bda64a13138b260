package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"browser-sync/internal/domain"
	"browser-sync/internal/service"
)

// respondError maps domain errors onto status codes. Only unexpected errors
// are recorded as server faults; their text never reaches the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Error()}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "username already registered"})
	case errors.Is(err, domain.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, domain.ErrUnauthorized):
		unauthorized(c, "could not validate credentials")
	case errors.Is(err, domain.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// badBody reports a request body that could not be decoded.
func (h *Handler) badBody(c *gin.Context, err error) {
	h.requestLogger(c).WithField("reason", err.Error()).Debug("malformed request body")
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
}
