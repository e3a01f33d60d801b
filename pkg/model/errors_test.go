package model

import (
	"strings"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: ErrNotFound, Message: "View 'view_123' not found"}
	want := "NOT_FOUND: View 'view_123' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("View", "view_abc")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Message != "View 'view_abc' not found" {
		t.Errorf("Message = %q, want %q", err.Message, "View 'view_abc' not found")
	}
}

func TestNewUpstreamError(t *testing.T) {
	err := NewUpstreamError("No se pudo cargar pacientes.")
	if err.Code != ErrUpstream {
		t.Errorf("Code = %q, want %q", err.Code, ErrUpstream)
	}
	want := "UPSTREAM_ERROR: No se pudo cargar pacientes."
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewInternalError(t *testing.T) {
	err := NewInternalError()
	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if strings.Contains(err.Message, "panic") {
		t.Errorf("Message = %q leaks panic detail", err.Message)
	}
}
