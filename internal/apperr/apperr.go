// Package apperr defines the error kinds surfaced to users of Launchpad.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for presentation.
type Kind string

const (
	InvalidInput Kind = "invalid_input"
	Unauthorized Kind = "unauthorized"
	AccessDenied Kind = "access_denied"
	NotFound     Kind = "not_found"
	Conflict     Kind = "conflict"
	EmptyResult  Kind = "empty_result"
	Upstream     Kind = "upstream_error"
	Internal     Kind = "internal"
)

// Error wraps an underlying error with a kind, a user-safe message and an
// optional remediation hint.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error without an underlying cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to err. A nil err returns nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithHint returns a copy of e carrying a remediation hint.
func (e *Error) WithHint(hint string) *Error {
	cp := *e
	cp.Hint = hint
	return &cp
}

// KindOf reports the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HintOf returns the remediation hint attached to err, if any.
func HintOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Hint
	}
	return ""
}

// HTTPStatus maps a kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidInput:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case AccessDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case EmptyResult:
		return http.StatusUnprocessableEntity
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
