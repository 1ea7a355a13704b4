package errors

import (
	"fmt"
	"net/http"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *Error {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// Network creates an error for a request that never got a response.
func Network(err error) *Error {
	return Wrap(err, ErrCodeNetwork, "could not reach the server")
}

// Backend creates an error for a non-2xx response. message is the text the
// backend put in its error body; when empty the HTTP status text is used.
func Backend(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
		if message == "" {
			message = fmt.Sprintf("request failed with status %d", status)
		}
	}
	return New(ErrCodeBackend, message).WithDetail("status", status)
}

// MalformedResponse creates an error for a 2xx response that is missing
// required fields or cannot be decoded.
func MalformedResponse(what string) *Error {
	return New(ErrCodeMalformedResponse, fmt.Sprintf("malformed response: %s", what))
}

// SessionExpired creates the error returned when a token refresh failed and
// the session was cleared.
func SessionExpired(cause error) *Error {
	return Wrap(cause, ErrCodeSessionExpired, "session expired, please log in again")
}

// NotAuthenticated creates the error returned when no session is available.
func NotAuthenticated() *Error {
	return New(ErrCodeNotAuthenticated, "not logged in")
}

// InvalidInput creates an input validation error
func InvalidInput(reason string) *Error {
	return New(ErrCodeInvalidInput, reason)
}

// NotFound creates an error for a missing record.
func NotFound(kind, id string) *Error {
	return New(ErrCodeNotFound, fmt.Sprintf("%s '%s' not found", kind, id)).
		WithDetail("kind", kind).
		WithDetail("id", id)
}

// Storage wraps a durable storage failure.
func Storage(op string, err error) *Error {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("storage %s failed", op)).
		WithDetail("op", op)
}

// Status returns the HTTP status carried by a backend error, or 0.
func Status(err error) int {
	coded, ok := As(err)
	if !ok || coded.Code != ErrCodeBackend {
		return 0
	}
	if status, ok := coded.Details["status"].(int); ok {
		return status
	}
	return 0
}
