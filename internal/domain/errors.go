package domain

import (
	"fmt"
	"time"
)

// Codes carried in DraftError.Code.
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrValidation     = "VALIDATION_ERROR"
	ErrNotFoundCode   = "NOT_FOUND"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrStorage        = "STORAGE_ERROR"
	ErrUpstream       = "UPSTREAM_ERROR"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// DraftError is the error body shared by the HTTP API and MCP tool results.
type DraftError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// NewDraftError stamps the error with the current UTC time.
func NewDraftError(code, message, details, requestID string) *DraftError {
	e := &DraftError{Code: code, Message: message, Details: details, RequestID: requestID}
	e.Timestamp = time.Now().UTC()
	return e
}

func (e *DraftError) Error() string {
	return e.Code + ": " + e.Message
}

// ValidationError rejects one request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

func NewValidationError(field, message string, value any) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}
