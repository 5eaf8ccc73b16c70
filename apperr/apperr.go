// Package apperr classifies request failures so every handler maps them to
// the same status codes and client messages.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindStore
)

// ServerErrorMessage is the only text a client sees for storage failures.
const ServerErrorMessage = "Server error"

// Error is a classified failure. Message is safe to show to the client; Err is
// the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status for the error's kind. Conflicts answer 400 like
// validation failures so duplicate emails look like any other rejected signup.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Auth(msg string, err error) *Error { return &Error{Kind: KindAuth, Message: msg, Err: err} }

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string, err error) *Error { return &Error{Kind: KindConflict, Message: msg, Err: err} }

// Store wraps an infrastructure failure behind the generic server message.
func Store(err error) *Error {
	return &Error{Kind: KindStore, Message: ServerErrorMessage, Err: err}
}

// From classifies err. Anything that is not already an *Error is treated as a
// storage failure.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Store(err)
}
