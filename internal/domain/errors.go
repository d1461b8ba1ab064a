package domain

import (
	"errors"
	"fmt"
)

// AppError is the base error type for the pipeline. Code drives exit-code
// mapping in the command mains and degraded/failed classification in the
// collection orchestrator.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Error codes distinguished by the core.
const (
	CodeTransient       = "TRANSIENT"
	CodeClientError     = "CLIENT_ERROR"
	CodeBreakerOpen     = "BREAKER_OPEN"
	CodeParseError      = "PARSE_ERROR"
	CodeValidation      = "VALIDATION_ERROR"
	CodeDataUnavailable = "DATA_UNAVAILABLE"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrTransient marks a network-level failure after retry exhaustion.
func ErrTransient(msg string, cause error) *AppError {
	return &AppError{Code: CodeTransient, Message: msg, Cause: cause}
}

// ErrClient marks a 4xx response; never retried.
func ErrClient(status int, msg string) *AppError {
	return &AppError{Code: CodeClientError, Message: fmt.Sprintf("status %d: %s", status, msg)}
}

// ErrBreakerOpen marks a fast-fail while a circuit breaker is open.
func ErrBreakerOpen(client string) *AppError {
	return &AppError{Code: CodeBreakerOpen, Message: fmt.Sprintf("circuit open for %s", client)}
}

// ErrParse marks a payload that failed schema validation; the raw record is
// quarantined, not normalized.
func ErrParse(msg string, cause error) *AppError {
	return &AppError{Code: CodeParseError, Message: msg, Cause: cause}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg}
}

// ErrDataUnavailable marks expected-but-absent data (games not final,
// predictions not generated). Non-fatal; mains exit 2.
func ErrDataUnavailable(msg string) *AppError {
	return &AppError{Code: CodeDataUnavailable, Message: msg}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Cause: cause}
}

// CodeOf extracts the AppError code from an error chain, or CodeInternal.
func CodeOf(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return CodeInternal
}

// IsDataUnavailable reports whether the error chain is a no-data condition.
func IsDataUnavailable(err error) bool {
	return CodeOf(err) == CodeDataUnavailable
}
