package errors

import (
	"strings"
	"testing"
)

func TestValidateParamKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "seed", false},
		{"valid dotted", "model.lr", false},
		{"valid with spaces", "noise level", false},

		{"empty", "", true},
		{"too long", strings.Repeat("k", 300), true},
		{"equals sign", "a=b", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParamKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateParamKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateParamKey(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateCodeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative path", "plots/figure.py", false},
		{"absolute path", "/home/user/plots/figure.py", false},
		{"bare name", "main.go", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "foo\x00.py", true},
		{"control char", "foo\x01.py", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCodeName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCodeName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUploadFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"png", "figure.png", false},
		{"python source", "plot.py", false},

		{"empty", "", true},
		{"with path /", "path/to/file.png", true},
		{"with path \\", "path\\to\\file.png", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"control char", "a\nb.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUploadFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUploadFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
