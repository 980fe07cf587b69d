// Package apperror defines the error taxonomy shared by the vault client.
//
// Every failure a caller can observe is an *Error carrying a Kind and a
// message that is safe to show to a user. Transport detail stays in the
// wrapped cause and is meant for logs only.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a client-side, pre-flight failure. It never reaches the network.
	KindValidation
	// KindAuthenticationRequired means there is no session or the server rejected it.
	KindAuthenticationRequired
	KindNotFound
	KindPermissionDenied
	// KindTransportFailure covers unreachable servers and malformed responses.
	KindTransportFailure
	// KindServerError is a structured error payload returned by the backend.
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthenticationRequired:
		return "authentication_required"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindTransportFailure:
		return "transport_failure"
	case KindServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrAuthenticationRequired = &Error{Kind: KindAuthenticationRequired}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrPermissionDenied       = &Error{Kind: KindPermissionDenied}
	ErrTransportFailure       = &Error{Kind: KindTransportFailure}
	ErrServerError            = &Error{Kind: KindServerError}
)

// Error is the normalized failure surfaced to callers.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "documents.upload".
	Op string
	// Message is human readable and safe to display.
	Message string
	// Status is the HTTP status code, zero when no response was received.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an *Error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap returns an *Error of the given kind wrapping cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// Validation builds a validation error for op.
func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
