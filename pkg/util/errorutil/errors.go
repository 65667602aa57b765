package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the core and the HTTP surface.
const (
	CodeNotReady          = "NOT_READY"
	CodeValidation        = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeStoreRead         = "STORE_READ_FAILED"
	CodeStoreWrite        = "STORE_WRITE_FAILED"
	CodeStoreSubscription = "STORE_SUBSCRIPTION_FAILED"
	CodeInternal          = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewNotReady reports that identity or the store is not available yet.
func NewNotReady(message string) error {
	if message == "" {
		message = "not ready: identity or store unavailable, please try again"
	}
	return NewDomainError(CodeNotReady, message, http.StatusServiceUnavailable, nil)
}

// NewForbidden reports a write aimed at data the signed-in user does not own.
func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewStoreReadError wraps a failed or denied read against the document store.
func NewStoreReadError(path string, err error) error {
	return &DomainError{
		Code:       CodeStoreRead,
		Message:    "could not load data",
		HTTPStatus: http.StatusBadGateway,
		Details:    pathDetails(path),
		Err:        err,
	}
}

// NewStoreWriteError wraps a failed, denied or timed out write.
func NewStoreWriteError(path string, err error) error {
	message := "could not save changes"
	if errors.Is(err, context.DeadlineExceeded) {
		message = "saving changes timed out"
	}
	return &DomainError{
		Code:       CodeStoreWrite,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    pathDetails(path),
		Err:        err,
	}
}

// NewStoreSubscriptionError reports a fault on a live subscription.
func NewStoreSubscriptionError(path string, err error) error {
	return &DomainError{
		Code:       CodeStoreSubscription,
		Message:    "live updates interrupted",
		HTTPStatus: http.StatusBadGateway,
		Details:    pathDetails(path),
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given DomainError code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}

// UserMessage returns the short human-readable message for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Message
}

func MapError(err error) error {
	return ToDomainError(err)
}

func pathDetails(path string) map[string]any {
	if path == "" {
		return nil
	}
	return map[string]any{"path": path}
}
