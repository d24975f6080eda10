package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode represents API error codes
type ErrorCode int

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthorized ErrorCode = 1001
	ErrCodeTokenExpired ErrorCode = 1002
	ErrCodeTokenInvalid ErrorCode = 1003
	ErrCodeLoginFailed  ErrorCode = 1004
	ErrCodeOTPInvalid   ErrorCode = 1005

	// Authorization errors (2xxx)
	ErrCodeForbidden ErrorCode = 2001

	// Resource errors (3xxx)
	ErrCodeNotFound      ErrorCode = 3001
	ErrCodeAlreadyExists ErrorCode = 3002
	ErrCodeConflict      ErrorCode = 3003

	// Validation errors (4xxx)
	ErrCodeValidation   ErrorCode = 4001
	ErrCodeInvalidInput ErrorCode = 4002
	ErrCodeRateLimited  ErrorCode = 4003

	// Internal errors (5xxx)
	ErrCodeInternal    ErrorCode = 5001
	ErrCodeDatabase    ErrorCode = 5002
	ErrCodeExternalAPI ErrorCode = 5003
	ErrCodeUnavailable ErrorCode = 5004
)

// APIError is the body of an error envelope:
//
//	{"status":"error","error":{"code":3001,"title":"Not Found","message":"event not found"}}
type APIError struct {
	Status  int          `json:"-"`
	Code    ErrorCode    `json:"code"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	// Detail carries the underlying cause of a 5xx outside production
	Detail string `json:"detail,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.Status, e.Title, e.Message)
}

// WithDetail returns a copy of e carrying detail
func (e *APIError) WithDetail(detail string) *APIError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// ErrorEnvelope wraps an APIError for the wire
type ErrorEnvelope struct {
	Status string    `json:"status"`
	Error  *APIError `json:"error"`
}

// WriteJSON writes the error envelope with e's status code
func (e *APIError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Status: "error", Error: e})
}

// Common error constructors

func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeUnauthorized,
		Title:   "Unauthorized",
		Message: message,
	}
}

func NewTokenExpiredError(message string) *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeTokenExpired,
		Title:   "Unauthorized",
		Message: message,
	}
}

func NewForbiddenError(message string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    ErrCodeForbidden,
		Title:   "Forbidden",
		Message: message,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    ErrCodeNotFound,
		Title:   "Not Found",
		Message: fmt.Sprintf("%s not found", resource),
	}
}

func NewValidationError(fields []FieldError) *APIError {
	message := "One or more fields failed validation"
	if len(fields) > 0 {
		message = fmt.Sprintf("%s: %s", fields[0].Field, fields[0].Message)
		if len(fields) > 1 {
			message = fmt.Sprintf("%s (and %d more errors)", message, len(fields)-1)
		}
	}
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    ErrCodeValidation,
		Title:   "Validation Error",
		Message: message,
		Fields:  fields,
	}
}

func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    ErrCodeConflict,
		Title:   "Conflict",
		Message: message,
	}
}

func NewBadRequestError(message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeInvalidInput,
		Title:   "Bad Request",
		Message: message,
	}
}

func NewInternalError(message string) *APIError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    ErrCodeInternal,
		Title:   "Internal Server Error",
		Message: message,
	}
}

func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    ErrCodeUnavailable,
		Title:   "Service Unavailable",
		Message: message,
	}
}

func NewRateLimitError(retryAfter int) *APIError {
	return &APIError{
		Status:  http.StatusTooManyRequests,
		Code:    ErrCodeRateLimited,
		Title:   "Too Many Requests",
		Message: fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter),
	}
}
