// Package apperr defines the error taxonomy shared across the application.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation covers missing or malformed local input: an empty
	// token, a blank title, a response body of an unexpected shape.
	ErrValidation = errors.New("validation failed")
	// ErrAuth is returned when the remote service rejects the token (401).
	ErrAuth = errors.New("authentication failed")
	// ErrPermission is returned when the token lacks access (403).
	ErrPermission = errors.New("permission denied")
	// ErrNotFound is returned for a missing remote resource (404).
	ErrNotFound = errors.New("not found")
	// ErrServer is returned for 5xx responses.
	ErrServer = errors.New("server error")
	// ErrNetwork is returned for transport failures before any response.
	ErrNetwork = errors.New("network error")
	// ErrTimeout is returned when a request deadline is exceeded.
	ErrTimeout = errors.New("request timed out")
	// ErrInvalidResponse is returned when a 2xx response lacks a required field.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrCancelled marks a user-declined selection. A normal terminal
	// outcome, not a failure.
	ErrCancelled = errors.New("cancelled")
	// ErrLocalWrite marks a failed local update after the remote side
	// effect already happened. Callers must still report the remote result.
	ErrLocalWrite = errors.New("local write failed")
)

// FromStatus maps a non-2xx HTTP status code to a taxonomy error.
func FromStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrAuth
	case status == http.StatusForbidden:
		return ErrPermission
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrServer
	default:
		return ErrValidation
	}
}
