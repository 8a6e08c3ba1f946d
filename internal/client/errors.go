package client

import (
	"errors"
	"net/http"
)

// Sentinel errors classifying failed calls. Use errors.Is against an *Error.
var (
	// ErrAuthenticationRequired is returned when an authenticated call is made without a credential.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrSessionExpired is returned when the server rejects the credential with a 401.
	ErrSessionExpired = errors.New("session expired")

	// ErrAPI is returned for any other non-2xx response.
	ErrAPI = errors.New("API error")

	// ErrLoginFailed is returned when a login is rejected or fails in transit.
	ErrLoginFailed = errors.New("login failed")
)

// Error is a failed call. Error() returns the server-provided message verbatim
// when there was one, otherwise a generic message for the kind.
type Error struct {
	Kind    error
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// newStatusError classifies a non-2xx response. A 401 only means the session
// expired when the call carried a credential.
func newStatusError(status int, message string, authenticated bool) *Error {
	kind := ErrAPI
	if status == http.StatusUnauthorized && authenticated {
		kind = ErrSessionExpired
	}
	return &Error{Kind: kind, Status: status, Message: message}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
