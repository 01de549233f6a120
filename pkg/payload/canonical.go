package payload

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/matzehuels/stegaplots/pkg/errors"
)

// Params maps parameter names to JSON-serializable values.
type Params map[string]any

// Code maps code identifiers (typically file paths) to source text.
type Code map[string]string

const hexDigits = "0123456789abcdef"

// DictToStr serializes v as canonical JSON: keys sorted, no insignificant
// whitespace, HTML characters left as-is and non-ASCII escaped.
//
// A nil map serializes as "{}" so an absent payload and an empty one embed
// identically.
func DictToStr(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", errors.Wrap(errors.ErrCodeParse, err, "serialize payload")
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	if string(out) == "null" {
		return "{}", nil
	}
	return escapeNonASCII(out), nil
}

// StrToDict parses canonical JSON produced by [DictToStr] (or any JSON
// object) into a map. Malformed input and non-object documents fail with a
// PARSE error.
func StrToDict(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse payload JSON")
	}
	if dec.More() {
		return nil, errors.New(errors.ErrCodeParse, "parse payload JSON: trailing data after object")
	}
	if m == nil {
		return nil, errors.New(errors.ErrCodeParse, "parse payload JSON: expected object, got null")
	}
	return m, nil
}

// StrToCode parses a canonical code block into a [Code] mapping. Every value
// must be a string.
func StrToCode(s string) (Code, error) {
	var c Code
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse code JSON")
	}
	if c == nil {
		return nil, errors.New(errors.ErrCodeParse, "parse code JSON: expected object, got null")
	}
	return c, nil
}

// escapeNonASCII rewrites every rune >= 0x80 as a \uXXXX escape, using a
// surrogate pair outside the basic multilingual plane. JSON string syntax
// guarantees such runes only occur inside string literals.
func escapeNonASCII(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		if b[0] < utf8.RuneSelf {
			sb.WriteByte(b[0])
			b = b[1:]
			continue
		}
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			writeUnicodeEscape(&sb, hi)
			writeUnicodeEscape(&sb, lo)
			continue
		}
		writeUnicodeEscape(&sb, r)
	}
	return sb.String()
}

func writeUnicodeEscape(sb *strings.Builder, r rune) {
	sb.WriteString(`\u`)
	sb.WriteByte(hexDigits[(r>>12)&0xF])
	sb.WriteByte(hexDigits[(r>>8)&0xF])
	sb.WriteByte(hexDigits[(r>>4)&0xF])
	sb.WriteByte(hexDigits[r&0xF])
}
