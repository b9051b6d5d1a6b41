package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{NotFound("x"), KindNotFound},
		{Duplicate("x"), KindDuplicate},
		{Unauthorized("x"), KindUnauthorized},
		{Forbidden("x"), KindForbidden},
		{Invalid("x"), KindInvalid},
		{errors.New("plain"), KindUnknown},
		{nil, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestKindOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("handling request: %w", NotFound("user not found"))
	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("KindOf(wrapped) = %v, want KindNotFound", got)
	}
}

func TestSentinelEquality(t *testing.T) {
	sentinel := Unauthorized("invalid refresh token")

	if !errors.Is(Unauthorized("invalid refresh token"), sentinel) {
		t.Fatal("same kind and message must match the sentinel")
	}
	if errors.Is(Unauthorized("other message"), sentinel) {
		t.Fatal("different message must not match")
	}
	if errors.Is(NotFound("invalid refresh token"), sentinel) {
		t.Fatal("different kind must not match")
	}

	wrapped := fmt.Errorf("refresh: %w", sentinel)
	if !errors.Is(wrapped, sentinel) {
		t.Fatal("wrapping must preserve sentinel matching")
	}
}

func TestErrorMessage(t *testing.T) {
	if got := NotFound("user not found").Error(); got != "user not found" {
		t.Fatalf("Error() = %q", got)
	}
}
