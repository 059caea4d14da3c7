// Package handlers provides the HTTP handlers for the movie list: the HTML
// pages and the JSON API mirror under /api/v1.
//
// This file defines the JSON response utilities used by the API handlers:
// the structured error envelope, the mapping from service errors to HTTP
// status and code, and small success helpers.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "movie not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-top-movies/internal/http/middleware"
	"github.com/tbourn/go-top-movies/internal/services"
)

// ErrorResponse is the standard error envelope returned by all API endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"movie not found"`
}

// fail aborts the request with a structured error. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error onto status and code. Unknown errors become a
// 500 whose message does not leak internals; the cause is logged.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrMovieNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "movie not found")
	case errors.Is(err, services.ErrRatingTooHigh):
		fail(c, http.StatusUnprocessableEntity, ErrCodeConstraint, services.ErrRatingTooHigh.Error())
	case errors.Is(err, services.ErrCatalogRecordMissing):
		fail(c, http.StatusNotFound, ErrCodeCatalogRecordMissing, services.ErrCatalogRecordMissing.Error())
	case errors.Is(err, services.ErrCatalogUnavailable):
		middleware.LoggerFrom(c).Warn().Err(err).Msg("catalog call failed")
		fail(c, http.StatusBadGateway, ErrCodeCatalogUnavailable, services.ErrCatalogUnavailable.Error())
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
