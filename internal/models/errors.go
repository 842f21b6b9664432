package models

import (
	"errors"
	"fmt"
)

// ErrMissingVerifier is returned by the token exchange when no PKCE verifier is
// stored for the session, e.g. when the callback URL is opened directly without
// a preceding login start. It is detected before any network call is made.
var ErrMissingVerifier = errors.New("missing PKCE verifier")

// TokenExchangeError is returned when the token endpoint answers with a
// non-success HTTP status.
type TokenExchangeError struct {
	// StatusCode is the HTTP status returned by the token endpoint.
	StatusCode int
	// Body is a short snippet of the response body, when one was available.
	Body string
}

// Error returns a string representation of the token exchange failure.
// It implements the error interface.
func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %d", e.StatusCode)
}

// IsAuthExchangeError reports whether err belongs to the auth exchange family:
// a missing verifier or a failed token endpoint call.
func IsAuthExchangeError(err error) bool {
	if errors.Is(err, ErrMissingVerifier) {
		return true
	}
	var exchangeErr *TokenExchangeError
	return errors.As(err, &exchangeErr)
}

// RealtimeConnectError is returned when opening or subscribing the realtime
// notification channel fails.
type RealtimeConnectError struct {
	// Op names the step that failed: "create channel", "dial", "subscribe".
	Op string
	// Err is the underlying failure.
	Err error
}

// Error returns a string representation of the realtime failure.
// It implements the error interface.
func (e *RealtimeConnectError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying failure.
func (e *RealtimeConnectError) Unwrap() error {
	return e.Err
}

// APIError represents a non-success response from the platform REST API.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// ValidationError represents a single field validation error.
// It contains the field name that failed validation and a human-readable
// message describing the validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error returns a string representation of the validation error in the format
// "field: message". It implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a slice of ValidationError that represents multiple
// field validation errors.
type ValidationErrors []ValidationError

// Error returns a string representation of the validation errors.
// If there are no errors, it returns "validation failed".
// If there is one error, it returns that error's message.
// If there are multiple errors, it returns a summary with the count.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("validation failed with %d errors", len(e))
}

// HasErrors returns true if there are one or more validation errors in the collection.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}
