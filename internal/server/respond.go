package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/standflow/standflow/internal/errs"
)

// respondError maps the engine error taxonomy onto HTTP statuses. Unexpected
// failures are logged with their cause and surfaced as a generic message.
func respondError(c *gin.Context, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		e = errs.Unexpected(err)
	}

	switch e.Kind {
	case errs.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Message})
	case errs.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": e.Message})
	case errs.KindValidation:
		body := gin.H{"error": e.Message}
		if len(e.Fields) > 0 {
			body["fields"] = e.Fields
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errs.KindInvalidOperation:
		c.JSON(http.StatusConflict, gin.H{"error": e.Message})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an unexpected error occurred"})
	}
}

// badRequest rejects malformed request payloads before they reach a service.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
}

// pathUUID parses a uuid path parameter, answering 404 for garbage so
// malformed ids and missing rows are indistinguishable.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return uuid.Nil, false
	}
	return id, true
}
