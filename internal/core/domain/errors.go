package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured code.
type DomainError struct {
	Code    string // Error code (e.g., "AT-TOKN-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support; two DomainErrors match on code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if err is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// Token errors (TOKN).
var (
	// ErrTokenMalformed indicates the token string failed structural validation.
	ErrTokenMalformed = NewDomainError("AT-TOKN-4000", "malformed token")

	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = NewDomainError("AT-TOKN-4011", "token expired")

	// ErrTokenNotFound indicates no record exists for the token.
	ErrTokenNotFound = NewDomainError("AT-TOKN-4040", "token not found")

	// ErrTokenUnbound indicates a storage-backed operation was called on
	// an entity that has no storage or codec bound.
	ErrTokenUnbound = NewDomainError("AT-TOKN-5002", "access token not bound to storage")
)

// Authentication errors (AUTH).
var (
	// ErrUnauthenticated indicates no authenticated user could be resolved.
	// Raised only by the strict guard boundary, never by the resolution chain.
	ErrUnauthenticated = NewDomainError("AT-AUTH-4010", "unauthenticated")

	// ErrInvalidCredentials indicates the supplied credentials did not match.
	ErrInvalidCredentials = NewDomainError("AT-AUTH-4011", "invalid credentials")

	// ErrUserNotFound indicates the user provider has no matching user.
	ErrUserNotFound = NewDomainError("AT-AUTH-4040", "user not found")

	// ErrClientUnknown indicates a client id outside the allow-list.
	ErrClientUnknown = NewDomainError("AT-AUTH-4001", "unknown client id")
)

// System errors (SYS).
var (
	// ErrInternal indicates an internal error.
	ErrInternal = NewDomainError("AT-SYS-5000", "internal error")

	// ErrStorage indicates a storage layer error.
	ErrStorage = NewDomainError("AT-SYS-5001", "storage error")

	// ErrRateLimited indicates too many attempts.
	ErrRateLimited = NewDomainError("AT-SYS-4290", "too many attempts")
)

// Argument errors (ARG).
var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("AT-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("AT-ARG-1002", "missing required argument")
)
