package model

import "fmt"

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrNotFound ErrorCode = "NOT_FOUND"
	ErrUpstream ErrorCode = "UPSTREAM_ERROR"
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the Asilo API.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// NewInternalError creates an INTERNAL_ERROR APIError.
func NewInternalError() *APIError {
	return &APIError{Code: ErrInternal, Message: "internal server error"}
}

// NewUpstreamError creates an UPSTREAM_ERROR APIError. The message is shown
// to users as is, so it must not carry transport details.
func NewUpstreamError(msg string) *APIError {
	return &APIError{Code: ErrUpstream, Message: msg}
}
