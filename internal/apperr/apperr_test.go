package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := New(AccessDenied, "sheet %s is private", "abc").WithHint("share it")
	err := fmt.Errorf("ingest: fetch: %w", base)

	if got := KindOf(err); got != AccessDenied {
		t.Errorf("KindOf = %q, want %q", got, AccessDenied)
	}
	if got := HintOf(err); got != "share it" {
		t.Errorf("HintOf = %q, want %q", got, "share it")
	}
	if !Is(err, AccessDenied) {
		t.Error("Is(AccessDenied) = false, want true")
	}
}

func TestKindOf_Plain(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != Internal {
		t.Errorf("KindOf = %q, want %q", got, Internal)
	}
	if Is(nil, Internal) {
		t.Error("Is(nil) = true, want false")
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Wrap(cause, Upstream, "ai request failed")
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if err.Error() != "ai request failed: timeout" {
		t.Errorf("Error() = %q", err.Error())
	}
	if Wrap(nil, Upstream, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{InvalidInput, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{AccessDenied, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{EmptyResult, http.StatusUnprocessableEntity},
		{Upstream, http.StatusBadGateway},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.kind); got != tt.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
