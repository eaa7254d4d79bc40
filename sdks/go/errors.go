package admissiongate

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrDomainExists is returned when adding a hostname already on the allow-list.
	ErrDomainExists = errors.New("domain already on the allow-list")

	// ErrDomainNotFound is returned when removing a hostname that is not on the allow-list.
	ErrDomainNotFound = errors.New("domain not on the allow-list")

	// ErrServerUnreachable is returned when the gate cannot be contacted.
	ErrServerUnreachable = errors.New("server unreachable")
)

// APIError is returned when the gate answers with a non-2xx status that has
// no more specific error type.
type APIError struct {
	// StatusCode is the HTTP status the gate returned.
	StatusCode int
	// Message is the error text the gate returned, when present.
	Message string
}

// Error returns the error message.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("admissiongate: server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("admissiongate: server returned %d", e.StatusCode)
}

// DomainExistsError is returned when adding a hostname already on the allow-list.
type DomainExistsError struct {
	// Domain is the hostname that was already present.
	Domain string
}

// Error returns a human-readable description of the conflict.
func (e *DomainExistsError) Error() string {
	return fmt.Sprintf("domain %q already on the allow-list", e.Domain)
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrDomainExists).
func (e *DomainExistsError) Is(target error) bool {
	return target == ErrDomainExists
}

// DomainNotFoundError is returned when removing a hostname that is not on the allow-list.
type DomainNotFoundError struct {
	// Domain is the hostname that was not found.
	Domain string
}

// Error returns a human-readable description of the missing domain.
func (e *DomainNotFoundError) Error() string {
	return fmt.Sprintf("domain %q not on the allow-list", e.Domain)
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrDomainNotFound).
func (e *DomainNotFoundError) Is(target error) bool {
	return target == ErrDomainNotFound
}

// ServerUnreachableError is returned when the gate cannot be contacted.
type ServerUnreachableError struct {
	// Cause is the underlying transport error.
	Cause error
}

// Error returns a human-readable description of the server unreachable error.
func (e *ServerUnreachableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("server unreachable: %v", e.Cause)
	}
	return "server unreachable"
}

// Unwrap returns the underlying error cause.
func (e *ServerUnreachableError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrServerUnreachable).
func (e *ServerUnreachableError) Is(target error) bool {
	return target == ErrServerUnreachable
}
