package http

import (
	"fmt"
	"net/http"
)

// AppError represents an application-level error with an HTTP status.
// The message is what crosses the HTTP boundary; the wrapped error never does.
type AppError struct {
	Message string `json:"error"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// BadRequestError creates a 400 error.
func BadRequestError(message string) *AppError {
	return &AppError{Message: message, Status: http.StatusBadRequest}
}

// BadRequestErrorf creates a 400 error with formatting.
func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return BadRequestError(fmt.Sprintf(format, a...))
}

// InternalError creates a 500 error with a generic message. Internal detail
// stays in the wrapped error and is only ever logged.
func InternalError(err error) *AppError {
	return &AppError{Message: "An internal error has occurred.", Status: http.StatusInternalServerError, Err: err}
}
