package web

import (
	"net/http"

	"github.com/pkg/errors"
)

// Error is used to pass an error during the request through the
// application with web specific context.
type Error struct {
	Err    error
	Status int
	Fields []FieldError
}

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// NewRequestError wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewRequestError(err error, status int) error {
	return &Error{Err: err, Status: status}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorResponse is the form used for API responses from failures in the API.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
	Status bool         `json:"status"`
}

func toResponse(err error) (ErrorResponse, int) {
	var webErr *Error
	if errors.As(err, &webErr) {
		return ErrorResponse{
			Error:  webErr.Error(),
			Fields: webErr.Fields,
		}, webErr.Status
	}

	return ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError
}
