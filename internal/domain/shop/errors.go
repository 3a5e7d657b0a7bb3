// Package shop defines the error taxonomy of the storefront REST API.
//
// Every failed call is reported as an *APIError whose Kind is one of the
// sentinel errors below, so callers branch with errors.Is.
package shop

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrAuth is returned when login is rejected.
	ErrAuth = errors.New("authentication failed")

	// ErrValidation is returned when sign-up is rejected.
	ErrValidation = errors.New("request rejected by validation")

	// ErrSessionExpired is returned when an authenticated call answers 403.
	ErrSessionExpired = errors.New("session expired")

	// ErrNetwork is returned when the request never produced a response.
	ErrNetwork = errors.New("network error")

	// ErrGeneric is returned for any other non-success response.
	ErrGeneric = errors.New("request failed")

	// ErrOrder is returned when an order is refused for a reason other than
	// an expired session. It also matches ErrGeneric.
	ErrOrder = errors.New("order failed")
)

// APIError describes one failed API call.
type APIError struct {
	// Endpoint is the logical endpoint name, e.g. "orders.create".
	Endpoint string
	// Kind is one of the sentinel errors of this package.
	Kind error
	// Status is the HTTP status, or 0 when no response was received.
	Status int
	// RequestID is the X-Request-ID sent with the call.
	RequestID string
	// Err is the underlying cause, if any.
	Err error
}

// Error returns a human-readable description of the failure.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Endpoint, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *APIError) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrOrder && target == ErrGeneric
}

// Outcome returns a short, stable label for the error kind, used as a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuth):
		return "auth_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrNetwork):
		return "network_error"
	case errors.Is(err, ErrOrder):
		return "order_error"
	default:
		return "failure"
	}
}
