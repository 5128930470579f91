// forum-backend/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable failure category. Codes are part of the
// API contract and must not change between releases.
type Code string

const (
	CodeUnauthenticated Code = "unauthenticated"
	CodeUnauthorized    Code = "unauthorized"
	CodeForbidden       Code = "forbidden"
	CodeNotFound        Code = "not_found"
	CodeConflict        Code = "conflict"
	CodeValidation      Code = "validation_error"
	CodeInvalidArgument Code = "invalid_argument"
	CodeInternal        Code = "internal"
)

// FieldError is a single violated validation rule. Aggregate validation
// failures carry one FieldError per rule, all reported together.
type FieldError struct {
	Rule    string `json:"error"`
	Message string `json:"message"`
}

// Error is the structured failure returned by core operations.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an error with a stable code and a human-readable message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation aggregates every violated rule into one error. Callers collect
// all FieldErrors before returning, never failing fast on the first rule.
func Validation(fields []FieldError) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "One or more validation rules were violated.",
		Fields:  fields,
	}
}

// Internal wraps an unexpected storage or transaction failure. The cause is
// preserved for logs but never shown to callers.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "An internal error occurred.", cause: err}
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified failures.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to the HTTP status the transport layer should send.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation, CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
