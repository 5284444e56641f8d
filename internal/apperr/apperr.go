// Package apperr defines failures that carry an HTTP status to the response layer.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is a request failure with a client-visible message and status code.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an error with an explicit status code
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

// StatusAndMessage resolves the status code and client message for any error.
// Unrecognized errors map to 500 with a generic message so internal detail
// never reaches the caller.
func StatusAndMessage(err error) (int, string) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

// Write emits the uniform JSON error body for any failure.
func Write(w http.ResponseWriter, err error) {
	status, message := StatusAndMessage(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
