package bodhikit

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &ValidationError{Field: "name", Reason: "required"}, "name"},
		{"not found", &NotFoundError{Resource: "tool", ID: "ghost"}, "ghost"},
		{"execution", &ExecutionError{Tool: "t", Err: errors.New("boom")}, "boom"},
		{"transport", &TransportError{Err: errors.New("pipe")}, "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, tt.err.Error())
			}
		})
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := fmt.Errorf("wrapped: %w", &ExecutionError{Tool: "t", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("expected the cause to unwrap")
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	var te *TransportError
	err := fmt.Errorf("send: %w", &TransportError{Err: cause})
	if !errors.As(err, &te) {
		t.Fatal("expected a TransportError in the chain")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to unwrap")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&NotFoundError{Resource: "agent", ID: "x"}) {
		t.Error("expected true for NotFoundError")
	}
	if !IsNotFound(fmt.Errorf("ctx: %w", &NotFoundError{Resource: "a", ID: "b"})) {
		t.Error("expected true for wrapped NotFoundError")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("expected false for unrelated errors")
	}
	if IsNotFound(nil) {
		t.Error("expected false for nil")
	}
}
