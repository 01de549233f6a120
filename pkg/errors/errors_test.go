package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeFormat, "bad magic: %s", "nope")

	if err.Code != ErrCodeFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFormat)
	}

	if err.Message != "bad magic: nope" {
		t.Errorf("Message = %v, want %v", err.Message, "bad magic: nope")
	}

	expected := "FORMAT: bad magic: nope"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeParse, cause, "inflate code block")

	if err.Code != ErrCodeParse {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeParse)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeFormat, "test"),
			code:     ErrCodeFormat,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeFormat, "test"),
			code:     ErrCodeParse,
			expected: false,
		},
		{
			name:     "outer code of wrapped error",
			err:      Wrap(ErrCodeInvalidInput, New(ErrCodeParse, "inner"), "outer"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "inner code of wrapped error",
			err:      Wrap(ErrCodeInvalidInput, New(ErrCodeParse, "inner"), "outer"),
			code:     ErrCodeParse,
			expected: true,
		},
		{
			name:     "capacity error",
			err:      &CapacityError{Available: 8, Required: 16},
			code:     ErrCodeCapacity,
			expected: true,
		},
		{
			name:     "capacity error behind fmt wrap",
			err:      fmt.Errorf("insert: %w", &CapacityError{Available: 8, Required: 16}),
			code:     ErrCodeCapacity,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeFormat,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeFormat,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeEncodingDomain, "test"),
			expected: ErrCodeEncodingDomain,
		},
		{
			name:     "capacity error",
			err:      &CapacityError{},
			expected: ErrCodeCapacity,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCapacityError(t *testing.T) {
	err := &CapacityError{Shape: []int{480, 640, 4}, Available: 1228800, Required: 1300000}

	expected := "image size insufficient: (480, 640, 4) = 1228800 bits < 1300000 required"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
	if err.Code() != ErrCodeCapacity {
		t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeCapacity)
	}
	if err.Shortfall() != 71200 {
		t.Errorf("Shortfall() = %d, want 71200", err.Shortfall())
	}

	var ce *CapacityError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &ce) {
		t.Fatal("errors.As should find *CapacityError")
	}
	if ce.Required != 1300000 {
		t.Errorf("Required = %d, want 1300000", ce.Required)
	}
}
