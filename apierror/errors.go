// Package apierror defines the closed set of error variants produced by the
// storefront client. Callers branch on the concrete type (or the sentinel
// via errors.Is) instead of matching message strings.
package apierror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for comparison with errors.Is.
var (
	// ErrAuthExpired is wrapped by AuthExpiredError and reported when the
	// backend answers 401 on an authenticated call.
	ErrAuthExpired = errors.New("session expired")

	// ErrEmptyCart is returned by checkout when the cart has no items.
	ErrEmptyCart = errors.New("cart is empty")
)

// NetworkError wraps a transport-level failure (DNS, connect, TLS, timeout,
// cancelled context). The request never produced an HTTP status.
type NetworkError struct {
	Op  string // e.g. "cart.GetCart"
	Err error
}

func (e *NetworkError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the backend. Message carries the
// server-supplied "message" field when one was present, otherwise a generic
// "HTTP error <status>" string.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error %d", e.Status)
}

// ValidationError reports per-field validation failures, either detected
// client-side before submission or decoded from a 400 response body.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// AuthExpiredError reports that the session token was rejected with 401.
// The session has already been cleared by the time callers see it.
type AuthExpiredError struct {
	Err error
}

func (e *AuthExpiredError) Error() string { return ErrAuthExpired.Error() }

func (e *AuthExpiredError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrAuthExpired
}

// Is lets errors.Is(err, ErrAuthExpired) match regardless of wrapping.
func (e *AuthExpiredError) Is(target error) bool { return target == ErrAuthExpired }

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAuthExpired reports whether err is the session-expiry variant.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// AsAPI extracts an APIError when err carries one.
func AsAPI(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
