package domain

import (
	"errors"
	"testing"
)

func TestValidationErrorUnwrapsCause(t *testing.T) {
	err := NewInputError(ErrPersonNameTaken, "could not save person", map[string]string{"name": "already taken"}, map[string]any{"name": "Eve"})

	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error")
	}
	if !errors.Is(err, ErrPersonNameTaken) {
		t.Fatalf("expected cause to be preserved")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError")
	}
	if ve.InvalidArgs["name"] != "Eve" {
		t.Fatalf("unexpected invalid args: %#v", ve.InvalidArgs)
	}
	if got := err.Error(); got != "could not save person: name: already taken" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestValidationErrorWithoutCause(t *testing.T) {
	err := NewValidationError(map[string]string{"b": "x", "a": "y"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected cause match")
	}
	if got := err.Error(); got != "validation failed: a: y, b: x" {
		t.Fatalf("unexpected message: %q", got)
	}
}
