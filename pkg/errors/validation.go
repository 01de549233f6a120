package errors

import (
	"strings"
	"unicode"
)

// ValidateParamKey validates a parameter name supplied on the command line
// or through the HTTP service.
//
// Rules:
//   - No empty names
//   - No control characters
//   - No '=' (the CLI uses it as the key/value separator)
//   - Maximum length of 256 characters
func ValidateParamKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "parameter name cannot be empty")
	}

	if len(key) > 256 {
		return New(ErrCodeInvalidInput, "parameter name too long (max 256 characters)")
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "parameter name contains invalid control characters")
		}
	}

	if strings.Contains(key, "=") {
		return New(ErrCodeInvalidInput, "parameter name cannot contain '='")
	}

	return nil
}

// ValidateCodeName validates the identifier a code snapshot is stored under.
// Identifiers are usually file paths, so both absolute and relative paths
// are accepted; only names that would be unreadable when listed are rejected.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateCodeName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "code name cannot be empty")
	}

	const maxNameLength = 500
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidPath, "code name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "code name contains invalid characters")
		}
	}

	return nil
}

// ValidateUploadFilename validates a filename received in a multipart upload.
// It ensures the filename is a simple basename without path components.
func ValidateUploadFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "filename cannot be empty")
	}

	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidPath, "filename cannot contain path separators")
	}

	if filename == "." || filename == ".." {
		return New(ErrCodeInvalidPath, "filename cannot be %q", filename)
	}

	for _, r := range filename {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "filename contains invalid characters")
		}
	}

	return nil
}
