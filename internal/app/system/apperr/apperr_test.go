package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestDegradeRead(t *testing.T) {
	boom := errors.New("boom")
	iv := &InvariantViolation{Invariant: "unique membership", Detail: "2 rows"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"unauthorized", ErrUnauthorized, nil},
		{"wrapped unauthorized", fmt.Errorf("list channels: %w", ErrUnauthorized), nil},
		{"other error", boom, boom},
		{"invariant", iv, iv},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DegradeRead(tt.err); got != tt.want {
				t.Errorf("DegradeRead(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestMalformed(t *testing.T) {
	err := Malformed("op %d has no insert", 3)
	if !errors.Is(err, ErrMalformedContent) {
		t.Fatalf("expected ErrMalformedContent, got %v", err)
	}
	if err.Error() != "malformed content: op 3 has no insert" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestIsInvariant(t *testing.T) {
	iv := &InvariantViolation{Invariant: "unique membership", Detail: "2 rows"}
	if !IsInvariant(fmt.Errorf("gate: %w", iv)) {
		t.Error("expected wrapped invariant violation to be detected")
	}
	if IsInvariant(ErrUnauthorized) {
		t.Error("ErrUnauthorized is not an invariant violation")
	}
}
