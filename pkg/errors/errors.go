// Package errors provides structured error types for stegaplots.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP service and the codec
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codec reports four domain failures:
//   - CAPACITY: the carrier image has fewer samples than the bitstream needs
//   - FORMAT: the header is missing, corrupted or not a stegaplots header
//   - PARSE: recovered text failed JSON, base64 or inflate decoding
//   - ENCODING_DOMAIN: text outside the single-byte range reached the bit layer
//
// The remaining codes cover inputs and I/O around the codec.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeFormat, "bad magic %q", magic)
//	if errors.Is(err, errors.ErrCodeFormat) {
//	    // not a stegaplots image
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "decode params block")
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Codec errors
	ErrCodeCapacity       Code = "CAPACITY"
	ErrCodeFormat         Code = "FORMAT"
	ErrCodeParse          Code = "PARSE"
	ErrCodeEncodingDomain Code = "ENCODING_DOMAIN"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeUnsupported  Code = "UNSUPPORTED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// coder is implemented by error types that carry their own code.
type coder interface {
	Code() Code
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It walks the error chain and returns true on the first *Error or coded
// error type whose code matches.
func Is(err error, code Code) bool {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			if e.Code == code {
				return true
			}
		case coder:
			if e.Code() == code {
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// CapacityError reports a carrier that is too small for a bitstream.
type CapacityError struct {
	Shape     []int // carrier dimensions, e.g. [height width channels]
	Available int   // samples in the carrier (one bit each)
	Required  int   // bits the stream needs
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	dims := make([]string, len(e.Shape))
	for i, d := range e.Shape {
		dims[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("image size insufficient: (%s) = %d bits < %d required",
		strings.Join(dims, ", "), e.Available, e.Required)
}

// Code returns the error code for this error type.
func (e *CapacityError) Code() Code {
	return ErrCodeCapacity
}

// Shortfall returns how many bits are missing.
func (e *CapacityError) Shortfall() int {
	return e.Required - e.Available
}
