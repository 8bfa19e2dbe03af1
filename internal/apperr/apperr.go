// Package apperr defines the error taxonomy shared by services and handlers.
//
// Every failure a service reports is one of four kinds: the entity does not
// exist (NotFound), the entity exists but the actor may not touch it
// (Forbidden), a uniqueness rule was violated (Conflict), or the input was
// malformed (Invalid). Handlers translate the kind to an HTTP status exactly
// once, in httpx.Error. A Forbidden error must never be collapsed into a
// NotFound one: tests and logs rely on the distinction.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an error carrying an HTTP-ish status code.
type Error struct {
	Status int
	Msg    string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports equality by status and message, so fixed *Error values behave
// like sentinels under errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status && e.Msg == t.Msg
}

func NotFound(msg string) *Error  { return &Error{Status: http.StatusNotFound, Msg: msg} }
func Forbidden(msg string) *Error { return &Error{Status: http.StatusForbidden, Msg: msg} }
func Conflict(msg string) *Error  { return &Error{Status: http.StatusConflict, Msg: msg} }
func Invalid(msg string) *Error   { return &Error{Status: http.StatusBadRequest, Msg: msg} }

// Wrap attaches a cause to a copy of err. The copy still matches err under
// errors.Is.
func Wrap(err *Error, cause error) *Error {
	return &Error{Status: err.Status, Msg: err.Msg, Cause: cause}
}

// Code returns the HTTP status for err, or 500 for unclassified errors.
func Code(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool  { return Code(err) == http.StatusNotFound }
func IsForbidden(err error) bool { return Code(err) == http.StatusForbidden }
func IsConflict(err error) bool  { return Code(err) == http.StatusConflict }
func IsInvalid(err error) bool   { return Code(err) == http.StatusBadRequest }
