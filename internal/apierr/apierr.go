// Package apierr defines the error kinds surfaced to callers of the enrollment
// and root certificate endpoints and maps them onto HTTP status codes.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. The zero value is Internal so an unclassified
// error always falls back to a server-side failure.
type Kind int

const (
	Internal   Kind = iota // unexpected failure
	Validation             // client input malformed
	Rejected               // signing backend refused the CSR or arguments
	Timeout                // issuance did not complete within the poll budget
	NotFound               // requested static resource absent
	Backend                // backend failure after submission
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Rejected:
		return "rejected"
	case Timeout:
		return "timeout"
	case NotFound:
		return "not_found"
	case Backend:
		return "backend"
	default:
		return "internal"
	}
}

// Error is a classified failure carrying the message returned to the caller.
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

// New returns an error of the given kind with a fixed message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// Detailed wraps cause with a message that exposes the cause text to the caller.
func Detailed(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf("Internal error: %v", cause), Err: cause}
}

// KindOf returns the kind of err, or Internal when err is not classified.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return Internal
}

// StatusCode maps err onto the HTTP status returned to the caller.
func StatusCode(err error) int {
	switch KindOf(err) {
	case Validation, Rejected:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Timeout, Backend, Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client facing message for err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return fmt.Sprintf("Internal error: %v", err)
}

// Redacted reports the message to return when internal detail must not leave
// the process. Client errors keep their message, server errors are replaced.
func Redacted(err error) string {
	if StatusCode(err) >= http.StatusInternalServerError {
		return "Internal error"
	}
	return Message(err)
}
