// Package apperrors defines the error taxonomy shared by the try-on pipeline.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindInvalidToken      Kind = "INVALID_TOKEN"
	KindBadRequest        Kind = "BAD_REQUEST"
	KindMissingImages     Kind = "MISSING_IMAGES"
	KindUploadFailed      Kind = "UPLOAD_FAILED"
	KindProviderError     Kind = "PROVIDER_ERROR"
	KindResultFetchFailed Kind = "RESULT_FETCH_FAILED"
	KindResultStoreFailed Kind = "RESULT_STORE_FAILED"
	// KindPersistenceFailed is logged and counted, never returned to a caller.
	KindPersistenceFailed Kind = "PERSISTENCE_FAILED"
	KindInternal          Kind = "INTERNAL"
)

// HTTPStatus maps a kind to the status code used at the service boundary.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated, KindInvalidToken:
		return http.StatusUnauthorized
	case KindBadRequest, KindMissingImages:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the pipeline error type.
type Error struct {
	Kind    Kind   // Category
	Message string // Human-readable message surfaced to callers
	Details string // Optional diagnostic detail, e.g. a JSON parse failure
	Index   int    // 1-based position of the failed item for KindUploadFailed
	Cause   error  // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithDetails creates an error carrying a diagnostic detail string.
func WithDetails(kind Kind, message, details string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
