package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad input"), KindValidation},
		{"not found", NotFound("missing"), KindNotFound},
		{"duplicate", Duplicate("taken", nil), KindDuplicateKey},
		{"store", Store("db down", errors.New("io")), KindStore},
		{"plain error", errors.New("anything"), KindStore},
		{"wrapped", fmt.Errorf("context: %w", NotFound("missing")), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Duplicate("taken", nil), http.StatusConflict},
		{Store("down", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFromStore_UniqueViolation(t *testing.T) {
	pqErr := &pq.Error{Code: "23505"}

	err := FromStore("failed to insert patient", pqErr)

	if err.Kind != KindDuplicateKey {
		t.Errorf("Expected duplicate_key, got %v", err.Kind)
	}
	if !errors.Is(err, pqErr) {
		t.Error("Expected wrapped pq error to be reachable via errors.Is")
	}
}

func TestFromStore_OtherError(t *testing.T) {
	err := FromStore("failed to insert patient", errors.New("connection reset"))

	if err.Kind != KindStore {
		t.Errorf("Expected store_error, got %v", err.Kind)
	}
}

func TestClientMessage(t *testing.T) {
	wrapped := Store("failed to load patient", errors.New("connection reset"))

	if got := ClientMessage(wrapped, false); got != "failed to load patient" {
		t.Errorf("Expected cause hidden in production, got %q", got)
	}
	if got := ClientMessage(wrapped, true); got != "failed to load patient: connection reset" {
		t.Errorf("Expected cause included in development, got %q", got)
	}
	if got := ClientMessage(errors.New("raw"), false); got != "internal server error" {
		t.Errorf("Expected generic message for unclassified errors, got %q", got)
	}
}
