// Package httputil provides HTTP utility functions for request and response handling.
//
// Every body written by the proxy is wrapped in a {"responseData": ...} envelope,
// the shape existing PlayReady proxy clients expect.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/playready-proxy/internal/errors"
)

// Envelope is the top-level shape of every JSON response.
type Envelope struct {
	ResponseData any `json:"responseData"`
}

// ErrorResponse represents a structured error response.
// Error is a stable machine-readable code; Message is meant for humans.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RespondGin writes data wrapped in the response envelope.
func RespondGin(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Envelope{ResponseData: data})
}

// WriteErrorGin writes an error body with the given status and code and aborts the chain.
func WriteErrorGin(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, Envelope{ResponseData: ErrorResponse{
		Error:   code,
		Message: message,
	}})
}

// HandleErrorGin maps base domain errors to HTTP status codes and writes a JSON response.
// Domain handlers map their own error kinds first and fall back to this function.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var errorResponse ErrorResponse

	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		errorResponse = ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		}

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		errorResponse = ErrorResponse{
			Error:   "conflict",
			Message: "A conflict occurred with existing data",
		}

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errorResponse = ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		}

	case apperrors.Is(err, apperrors.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication is required",
		}

	case apperrors.Is(err, apperrors.ErrForbidden):
		statusCode = http.StatusForbidden
		errorResponse = ErrorResponse{
			Error:   "forbidden",
			Message: "You don't have permission to access this resource",
		}

	case apperrors.Is(err, apperrors.ErrUnavailable):
		statusCode = http.StatusBadGateway
		errorResponse = ErrorResponse{
			Error:   "upstream_unavailable",
			Message: "An upstream dependency failed",
		}

	default:
		// For unknown/internal errors, don't expose details to the client
		statusCode = http.StatusInternalServerError
		errorResponse = ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		}
	}

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	WriteErrorGin(c, statusCode, errorResponse.Error, errorResponse.Message)
}

// HandleValidationErrorGin writes a 400 Bad Request response for malformed bodies or missing fields.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	WriteErrorGin(c, http.StatusBadRequest, "validation_error", err.Error())
}
