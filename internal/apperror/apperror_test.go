package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("name", "name is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "abc123"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid credentials"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("admins only"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("user", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does NOT match ErrNotFound",
			err:       Unauthorized("user not found"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsIs_ThroughWrapping(t *testing.T) {
	// Services wrap store errors with fmt.Errorf("%w") — the sentinel must
	// survive a second layer of wrapping.
	wrapped := fmt.Errorf("creating user: %w", Conflict("user", "u1"))

	if !errors.Is(wrapped, ErrConflict) {
		t.Error("errors.Is() lost the sentinel through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() could not extract *AppError through wrapping")
	}
}

func TestErrorMessages(t *testing.T) {
	err := NotFound("user", "xyz")
	if err.Error() != "user not found with id xyz" {
		t.Errorf("Error() = %q", err.Error())
	}

	verr := ValidationFailed("email", "email is required")
	if verr.Error() != "email is required" {
		t.Errorf("Error() = %q", verr.Error())
	}
	if verr.Field != "email" {
		t.Errorf("Field = %q, want %q", verr.Field, "email")
	}

	uerr := Unauthorized("invalid credentials")
	if uerr.Error() != "invalid credentials" {
		t.Errorf("Error() = %q", uerr.Error())
	}
}
