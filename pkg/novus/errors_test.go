package novus

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNovusErrorMessageIncludesCause(t *testing.T) {
	cause := fmt.Errorf("truncated NOVA header")
	err := &NovusError{Code: ErrDecode, Message: "failed to load executable", Cause: cause}

	got := err.Error()
	if got == "" {
		t.Fatalf("Error() returned empty string")
	}
	if !strings.Contains(got, cause.Error()) {
		t.Fatalf("Error() = %q, want it to include the cause %q", got, cause.Error())
	}
	if !errors.Is(err, err) {
		t.Fatalf("errors.Is(err, err) = false, want true")
	}
	if errors.Unwrap(err) != cause {
		t.Fatalf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
}

func TestNovusErrorMessageWithoutCause(t *testing.T) {
	err := &NovusError{Code: ErrInvalidConfig, Message: "StackCapacity must be positive"}
	if err.Unwrap() != nil {
		t.Fatalf("Unwrap() = %v, want nil", err.Unwrap())
	}
	if err.Error() == "" {
		t.Fatalf("Error() returned empty string")
	}
}

func TestNovusErrorIsComparesByCode(t *testing.T) {
	a := &NovusError{Code: ErrExecution, Message: "executor failed"}
	b := &NovusError{Code: ErrExecution, Message: "a different message"}
	c := &NovusError{Code: ErrDecode, Message: "executor failed"}

	if !a.Is(b) {
		t.Fatalf("errors with matching Code should compare equal via Is")
	}
	if a.Is(c) {
		t.Fatalf("errors with differing Code should not compare equal via Is")
	}
	if a.Is(errors.New("plain error")) {
		t.Fatalf("Is should reject non-*NovusError targets")
	}
}
