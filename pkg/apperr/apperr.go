// Package apperr defines the sentinel errors shared by the domain services
// and their mapping onto HTTP responses.
package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	// ErrNotFound marks a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness or state conflict.
	ErrConflict = errors.New("conflict")
	// ErrForbidden marks an authenticated caller acting outside its rights.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation marks invalid caller input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized marks bad credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBadRequest marks a request that is well formed but cannot be served.
	ErrBadRequest = errors.New("bad request")
)

// Error carries a client-facing message and the sentinel it belongs to.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func NotFound(msg string) error     { return &Error{kind: ErrNotFound, msg: msg} }
func Conflict(msg string) error     { return &Error{kind: ErrConflict, msg: msg} }
func Forbidden(msg string) error    { return &Error{kind: ErrForbidden, msg: msg} }
func Validation(msg string) error   { return &Error{kind: ErrValidation, msg: msg} }
func Unauthorized(msg string) error { return &Error{kind: ErrUnauthorized, msg: msg} }
func BadRequest(msg string) error   { return &Error{kind: ErrBadRequest, msg: msg} }

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Status returns the HTTP status for err, or 500 for unclassified errors.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// HTTP converts err into an echo.HTTPError. Classified errors keep their
// message; anything else is passed through for the error handler to log and
// hide.
func HTTP(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var ae *Error
	if errors.As(err, &ae) {
		return echo.NewHTTPError(Status(ae.kind), ae.msg).SetInternal(err)
	}
	if code := Status(err); code != http.StatusInternalServerError {
		return echo.NewHTTPError(code, http.StatusText(code)).SetInternal(err)
	}
	return err
}
