package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsCarryStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
		kind   Kind
	}{
		{"validation", Validation("bad", nil), http.StatusBadRequest, KindValidation},
		{"conflict", Conflict("dup"), http.StatusConflict, KindConflict},
		{"unauthenticated", Unauthenticated("nope"), http.StatusUnauthorized, KindUnauthenticated},
		{"forbidden", Forbidden("admins"), http.StatusForbidden, KindForbidden},
		{"not found", NotFound("missing"), http.StatusNotFound, KindNotFound},
		{"upstream default", Upstream(0, "llm", nil), http.StatusBadGateway, KindUpstream},
		{"upstream explicit", Upstream(http.StatusInternalServerError, "pdf", nil), http.StatusInternalServerError, KindUpstream},
		{"internal", Internal("oops", nil), http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Status != tt.status {
				t.Fatalf("status = %d, want %d", tt.err.Status, tt.status)
			}
			if tt.err.Kind != tt.kind || tt.err.Code() != string(tt.kind) {
				t.Fatalf("kind = %s, want %s", tt.err.Kind, tt.kind)
			}
		})
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := fmt.Errorf("handler: %w", Internal("write failed", cause))

	appErr, ok := As(wrapped)
	if !ok {
		t.Fatal("expected to find app error")
	}
	if !errors.Is(appErr, cause) {
		t.Fatal("expected cause to unwrap")
	}
	if !IsKind(wrapped, KindInternal) {
		t.Fatal("expected internal kind")
	}
	if IsKind(cause, KindInternal) {
		t.Fatal("plain error should not match")
	}
}
