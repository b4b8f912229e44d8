// Package apperrors defines the failure taxonomy surfaced by the occupancy
// core. Every failure carries a Kind that maps to a stable code and HTTP
// status, so callers can tell "try again" from "fix your input".
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidArgument
	KindConflict
	KindTimeout
	KindUnavailable
	KindUnauthenticated
)

func (k Kind) Code() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindConflict:
		return "CONFLICT"
	case KindTimeout:
		return "TIMEOUT"
	case KindUnavailable:
		return "UNAVAILABLE"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	default:
		return "INTERNAL"
	}
}

func (k Kind) String() string {
	return k.Code()
}

// HTTPStatus maps the kind to the response status used by the API layer.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Err is the optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func Unavailable(err error, format string, args ...any) *Error {
	return Wrap(KindUnavailable, err, format, args...)
}

func Unauthenticated(format string, args ...any) *Error {
	return New(KindUnauthenticated, format, args...)
}

// KindOf classifies err. Context deadlines count as timeouts and
// cancellations as unavailability; anything unclassified is internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindUnavailable
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Classify returns err as an *Error, wrapping unclassified errors with
// their detected kind. nil stays nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	kind := KindOf(err)
	switch kind {
	case KindTimeout:
		return Wrap(kind, err, "storage deadline exceeded")
	case KindUnavailable:
		return Wrap(kind, err, "storage unavailable")
	default:
		return Wrap(kind, err, "internal error")
	}
}
