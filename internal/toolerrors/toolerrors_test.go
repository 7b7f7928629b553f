package toolerrors

import (
	"errors"
	"testing"
)

func TestClassifySetsCodeAndMessage(t *testing.T) {
	e := Classify("timeout", "deadline exceeded")
	if e.Code != "timeout" || e.Error() != "deadline exceeded" {
		t.Fatalf("unexpected error: %+v", e)
	}
}

func TestNewDefaultsEmptyMessage(t *testing.T) {
	if got := New("").Error(); got != "tool error" {
		t.Fatalf("expected a default message, got %q", got)
	}
}

func TestErrorsAsUnwrapsCauseChain(t *testing.T) {
	root := Classify("not_found", "file missing")
	wrapped := NewWithCause("write_file failed", root)

	var te *ToolError
	if !errors.As(wrapped, &te) {
		t.Fatalf("expected errors.As to find a ToolError in the chain")
	}
	if te.Message != "write_file failed" {
		t.Fatalf("expected errors.As to return the outermost ToolError first, got %+v", te)
	}
	if wrapped.Cause == nil || wrapped.Cause.Code != "not_found" {
		t.Fatalf("expected the cause's classification code to survive, got %+v", wrapped.Cause)
	}
}

func TestFromErrorPreservesExistingToolError(t *testing.T) {
	te := Classify("bad_input", "missing field")
	got := FromError(te)
	if got != te {
		t.Fatalf("expected FromError to return the same ToolError instance unchanged")
	}
}

func TestFromErrorWrapsPlainError(t *testing.T) {
	plain := errors.New("boom")
	got := FromError(plain)
	if got.Message != "boom" {
		t.Fatalf("expected the plain error's message preserved, got %+v", got)
	}
}

func TestFromErrorNil(t *testing.T) {
	if FromError(nil) != nil {
		t.Fatalf("expected FromError(nil) to return nil")
	}
}
