package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error the API can render: a stable code, a client safe
// message and the HTTP status to answer with. Err stays server side.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetails sets the details rendered alongside the message.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError wraps err as a 422 VALIDATION_FAILED error.
func ValidationError(message string, err error) *AppError {
	return NewAppError("VALIDATION_FAILED", message, http.StatusUnprocessableEntity, err)
}

// BadRequest wraps err as a 400 BAD_REQUEST error.
func BadRequest(message string, err error) *AppError {
	return NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
}

// PayloadTooLarge is the 413 returned once a body passes limit bytes.
func PayloadTooLarge(limit int64, err error) *AppError {
	return NewAppError("PAYLOAD_TOO_LARGE", "request entity too large", http.StatusRequestEntityTooLarge, err).
		WithDetails(map[string]any{"maxBytes": limit})
}

// WriteError renders err in the {"error": {...}} shape. Anything that is not
// an *AppError is reported as a bare 500 so internal text never leaks.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code, message := appErr.Code, appErr.Message
	if code == "" {
		code = "INTERNAL"
	}
	if message == "" {
		message = "internal error"
	}
	details := appErr.Details
	var syntaxErr *json.SyntaxError
	if details == nil && errors.As(appErr.Err, &syntaxErr) {
		details = map[string]any{"offset": syntaxErr.Offset}
	}
	JSONError(w, status, code, message, details)
}
