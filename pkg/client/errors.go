package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds reported by every client call. Test with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("not authorized")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrServer     = errors.New("server error")

	// ErrNetwork means the request may or may not have reached the server.
	// The outcome of a mutation is unknown.
	ErrNetwork = errors.New("network failure")

	// ErrBusy is returned when a change to the same request is already in flight
	ErrBusy = errors.New("another change to this request is in flight")
)

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.kind, e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.kind, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

func kindOf(status int) error {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status >= 500:
		return ErrServer
	}
	return ErrValidation
}
