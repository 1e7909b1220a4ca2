package apiclient

import (
	"errors"
	"net/http"
)

// Kind classifies why a request failed.
type Kind string

const (
	// KindNetwork covers transport failures: DNS, refused connections,
	// timeouts, truncated bodies.
	KindNetwork Kind = "network"
	// KindStatus means the server answered with a non-2xx status.
	KindStatus Kind = "http_status"
	// KindSchema means a 2xx body did not match the expected shape.
	KindSchema Kind = "schema"
)

// User-facing messages.
const (
	MessageRequestFailed   = "Request failed"
	MessageInvalidResponse = "Invalid response from server"
)

// Error is returned by every Client call that fails.
// Error() yields the message suitable for display; Kind, Status and Err
// keep the diagnostic detail.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
