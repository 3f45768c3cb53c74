package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error so the transport boundary can map it to a
// status code without inspecting message text.
type Kind string

const (
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	KindConflict        Kind = "CONFLICT"
	KindNotFound        Kind = "NOT_FOUND"
	KindForbidden       Kind = "FORBIDDEN"
	KindPrecondition    Kind = "PRECONDITION_FAILED"
	KindInternal        Kind = "INTERNAL"
)

// Error is a domain error carrying a kind, a human-readable message and an
// optional wrapped cause. It is raised at the point of detection and travels
// unmodified to the transport boundary.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details []string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetails attaches field-level violation messages, used by validation
// failures that must report every violated constraint.
func (e *Error) WithDetails(details ...string) *Error {
	e.Details = append(e.Details, details...)
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: err}
}

func InvalidArgument(message string) *Error { return New(KindInvalidArgument, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func Precondition(message string) *Error    { return New(KindPrecondition, message) }

func Internal(err error, message string) *Error {
	return Wrap(err, KindInternal, message)
}

// KindOf extracts the kind from an error chain. Anything that is not an
// *Error is treated as Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// UserMessage returns the message safe to show a caller. Internal errors are
// masked with a generic message; their detail is for server-side logs only.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal server error"
}

// DetailsOf returns attached field violations, if any.
func DetailsOf(err error) []string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}

// HTTPStatus maps a kind to the status code used by the response envelope.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindPrecondition:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
