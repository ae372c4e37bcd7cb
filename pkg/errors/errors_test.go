package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "surface",
			err:  New(ErrCodeInvalidSurface, "width must be positive, got %v", -1),
			want: "INVALID_SURFACE: width must be positive, got -1",
		},
		{
			name: "conflict",
			err:  New(ErrCodeVersionConflict, "template %s is at version %d, cannot save %d", "modern", 3, 3),
			want: "VERSION_CONFLICT: template modern is at version 3, cannot save 3",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeNetwork, errors.New("connection refused"), "load template %s", "modern"),
			want: "NETWORK_ERROR: load template modern: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("server selection timeout")
	err := Wrap(ErrCodeNetwork, cause, "save template")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching", New(ErrCodeInvalidSurface, "height"), ErrCodeInvalidSurface, true},
		{"other code", New(ErrCodeInvalidSurface, "height"), ErrCodeInvalidTemplate, false},
		{"through fmt wrap", fmt.Errorf("invalid options: %w", New(ErrCodeInvalidSurface, "ratio")), ErrCodeInvalidSurface, true},
		{"outermost code wins", Wrap(ErrCodeNetwork, New(ErrCodeVersionConflict, "inner"), "outer"), ErrCodeNetwork, true},
		{"conflict", fmt.Errorf("commit: %w", New(ErrCodeVersionConflict, "stale")), ErrCodeVersionConflict, true},
		{"plain", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"template", New(ErrCodeInvalidTemplate, "3 problems"), ErrCodeInvalidTemplate},
		{"slug", fmt.Errorf("open draft: %w", New(ErrCodeInvalidSlug, "bad id")), ErrCodeInvalidSlug},
		{"plain", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeInvalidTemplate, "template has 2 problems"), "template has 2 problems"},
		{"fmt wrapped", fmt.Errorf("scene: %w", New(ErrCodeInvalidSurface, "width must be positive")), "width must be positive"},
		{"plain", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", New(ErrCodeNotFound, "session"), true},
		{"template not found", New(ErrCodeTemplateNotFound, "modern@9"), true},
		{"wrapped cause", Wrap(ErrCodeTemplateNotFound, errors.New("no documents"), "load"), true},
		{"through fmt wrap", fmt.Errorf("get draft: %w", New(ErrCodeNotFound, "expired")), true},
		{"conflict", New(ErrCodeVersionConflict, "stale"), false},
		{"surface", New(ErrCodeInvalidSurface, "x"), false},
		{"plain", errors.New("plain"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
