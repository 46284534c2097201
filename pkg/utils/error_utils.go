package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIError is the standardized error envelope returned by every handler.
type APIError struct {
	StatusCode int    `json:"-"`              // HTTP status code, not part of the response body
	Code       string `json:"code,omitempty"` // Application-specific error code
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

// NewAPIError creates a new APIError instance.
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// RespondWithError sends a standardized JSON error response and aborts the request.
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort()
}

// Common error codes.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
)

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// RespondValidationFailed returns a standard validation error response.
func RespondValidationFailed(c *gin.Context, details string) {
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, "Input validation failed", details))
}

// RespondNotFound returns a standard not-found error response.
func RespondNotFound(c *gin.Context, message string, details string) {
	RespondWithError(c, NewAPIError(http.StatusNotFound, ErrCodeNotFound, message, details))
}

// RespondInternalError returns a standard internal-server-error response.
// The underlying error and context are logged, never exposed to the client.
func RespondInternalError(c *gin.Context, err error, context string) {
	LogError(err, context)
	RespondWithError(c, NewAPIError(http.StatusInternalServerError, ErrCodeInternalServerError, "Internal server error.", "Internal error"))
}
