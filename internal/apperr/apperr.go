// Package apperr defines the coded errors the HTTP layer maps to
// status codes and the {message, code} response body.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for the wire.
type Code string

const (
	CodeValidation   Code = "validation"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeForbidden    Code = "forbidden"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal"
)

// Error carries a code plus a human-readable message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(CodeValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(CodeNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(CodeConflict, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(CodeForbidden, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newf(CodeUnauthorized, format, args...)
}

func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: err.Error()}
}

// From extracts the coded error, wrapping unknown errors as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// HTTPStatus maps a code to its conventional status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
