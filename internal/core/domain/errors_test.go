package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError("AT-TEST-0001", "boom")
	if got := err.Error(); got != "[AT-TEST-0001] boom" {
		t.Errorf("Error() = %q", got)
	}

	withDetails := err.WithDetails("extra context")
	if got := withDetails.Error(); got != "[AT-TEST-0001] boom: extra context" {
		t.Errorf("Error() = %q", got)
	}
}

func TestDomainError_Is(t *testing.T) {
	err := ErrTokenNotFound.WithDetails("id tok-abc")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Error("errors.Is should match on code")
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("backend down")
	err := ErrStorage.WithCause(cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIsDomainError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", ErrUnauthenticated)

	if !IsDomainError(wrapped, ErrUnauthenticated.Code) {
		t.Error("IsDomainError should match wrapped errors by code")
	}
	if !IsDomainError(wrapped, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}
	if IsDomainError(errors.New("plain"), "") {
		t.Error("IsDomainError should reject non-domain errors")
	}
}
