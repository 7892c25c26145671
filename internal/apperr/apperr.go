// Package apperr defines the error taxonomy shared across the service.
// Errors carry a Kind tag instead of forming a type hierarchy, so callers
// branch on apperr.KindOf(err) and transports map kinds to status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for retry and transport decisions
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindProviderTransient Kind = "provider_transient" // timeout, upstream rate limit; retryable
	KindProviderMalformed Kind = "provider_malformed" // schema mismatch, unparsable payload
	KindCacheUnavailable  Kind = "cache_unavailable"  // degrades to always-miss, never fatal
	KindStorage           Kind = "storage"
	KindInternal          Kind = "internal"
)

// Error is a kind-tagged error value
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap annotates err with a kind and message
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindInternal for untagged errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the batch driver may retry the operation
func Retryable(err error) bool {
	return KindOf(err) == KindProviderTransient
}

// HTTPStatus maps an error kind to a transport status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	case KindProviderTransient:
		return http.StatusBadGateway
	case KindProviderMalformed:
		return http.StatusBadGateway
	case KindCacheUnavailable, KindStorage, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
