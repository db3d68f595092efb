package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// SuccessResponse writes a 200 response with the given body.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes an error body with the given status.
func ErrorResponse(c echo.Context, status int, msg string) error {
	return c.JSON(status, ErrorBody{Error: msg})
}

// BadRequestResponse writes a 400 error body.
func BadRequestResponse(c echo.Context, msg string) error {
	return ErrorResponse(c, http.StatusBadRequest, msg)
}

// InternalErrorResponse writes a 500 with a generic body; internals are
// never leaked to the caller.
func InternalErrorResponse(c echo.Context) error {
	return ErrorResponse(c, http.StatusInternalServerError, "An internal error has occurred.")
}

// AppErrorResponse maps an error to its HTTP representation.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorResponse(c, appErr.Status, appErr.Message)
	}
	return InternalErrorResponse(c)
}
