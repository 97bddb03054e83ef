package shared

import (
	"errors"
	"sort"
	"strings"
)

// Error codes shared by every bounded context
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidState        = "INVALID_STATE"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeExternalService     = "EXTERNAL_SERVICE_ERROR"
	CodeNotificationFailed  = "NOTIFICATION_FAILED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets callers use errors.Is(err, shared.ErrNotFound) against freshly built errors.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrValidation          = NewDomainError(CodeValidation, "Validation failed")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrExternalService     = NewDomainError(CodeExternalService, "External service call failed")
	ErrNotification        = NewDomainError(CodeNotificationFailed, "Notification could not be delivered")
)

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource, id string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: resource + " not found",
		Details: map[string]string{"id": id},
	}
}

// NewValidationError creates a VALIDATION_ERROR carrying per-field messages.
// The message lists the failing fields in a stable order.
func NewValidationError(fields map[string]string) *DomainError {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return &DomainError{
		Code:    CodeValidation,
		Message: "Validation failed: " + strings.Join(parts, "; "),
		Details: fields,
	}
}

// NewExternalServiceError wraps a failure of a third-party collaborator
func NewExternalServiceError(service string, cause error) *DomainError {
	msg := service + " call failed"
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &DomainError{
		Code:    CodeExternalService,
		Message: msg,
		cause:   cause,
	}
}

// NewNotificationError wraps a notification delivery failure
func NewNotificationError(cause error) *DomainError {
	msg := "notification failed"
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &DomainError{
		Code:    CodeNotificationFailed,
		Message: msg,
		cause:   cause,
	}
}

// HasCode reports whether err is a DomainError carrying the given code
func HasCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
