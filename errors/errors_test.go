package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeInvalidInput, "bad sort")
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("connection refused")
	wrapped := Wrap(cause, ErrCodeNetwork, "could not reach the server")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	if !Is(wrapped, ErrCodeNetwork) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeBackend) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("field", "sort").WithDetail("index", 9)
	if detailed.Details["field"] != "sort" {
		t.Error("WithDetail should add details")
	}
}

func TestIsThroughChain(t *testing.T) {
	inner := Network(fmt.Errorf("dial tcp: refused"))
	outer := SessionExpired(inner)
	wrapped := fmt.Errorf("refresh: %w", outer)

	if !Is(wrapped, ErrCodeSessionExpired) {
		t.Error("Is should find the outer code through fmt wrapping")
	}
	if !Is(wrapped, ErrCodeNetwork) {
		t.Error("Is should find a nested code through the cause chain")
	}
	if GetCode(wrapped) != ErrCodeSessionExpired {
		t.Errorf("GetCode should return the outermost code, got %s", GetCode(wrapped))
	}
	if GetCode(fmt.Errorf("plain")) != "" {
		t.Error("GetCode should be empty for non-coded errors")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := Backend(http.StatusUnauthorized, "Invalid credentials")
	if err.Code != ErrCodeBackend {
		t.Errorf("expected code %s, got %s", ErrCodeBackend, err.Code)
	}
	if err.Message != "Invalid credentials" {
		t.Errorf("backend message should be kept verbatim, got %q", err.Message)
	}
	if Status(err) != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", Status(err))
	}

	err = Backend(http.StatusInternalServerError, "")
	if err.Message != "Internal Server Error" {
		t.Errorf("empty backend message should fall back to status text, got %q", err.Message)
	}

	err = NotFound("client", "c1")
	if err.Details["id"] != "c1" {
		t.Error("NotFound should include id detail")
	}

	if UserMessage(MalformedResponse("missing token")) != "malformed response: missing token" {
		t.Error("UserMessage should return the bare message")
	}
	if Status(fmt.Errorf("x")) != 0 {
		t.Error("Status should be 0 for non-backend errors")
	}
}
