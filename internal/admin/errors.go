package admin

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized matches API failures caused by a missing, expired or
	// rejected token (HTTP 401 and 403).
	ErrUnauthorized = errors.New("admin: unauthorized")
	// ErrNoToken is wrapped by an AuthError when login succeeded at the HTTP
	// level but the response carried no token.
	ErrNoToken = errors.New("admin: no token in login response")
	// ErrLoginRequired is returned by Bootstrap when there is no usable
	// session.
	ErrLoginRequired = errors.New("admin: login required")
)

// ValidationError rejects a call before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AuthError is a failed login. Err holds the underlying cause when there is
// one (ErrNoToken, *transport.NonJSONError, *transport.NetworkError).
type AuthError struct {
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	switch {
	case e.Message != "":
		return "login failed: " + e.Message
	case e.Err != nil:
		return "login failed: " + e.Err.Error()
	}
	return fmt.Sprintf("login failed (HTTP %d)", e.Status)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is a non-2xx (or non-JSON) answer from an authenticated call.
// Message comes from the body when present and is otherwise synthesized
// from the status. For non-JSON bodies Err is the *transport.NonJSONError
// holding the raw text.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is makes 401 and 403 responses match ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == 401 || e.Status == 403)
}
