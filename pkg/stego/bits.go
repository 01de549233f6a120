package stego

import (
	"strings"

	"github.com/matzehuels/stegaplots/pkg/errors"
)

// TextToBits expands s into one bit per element, eight per character, most
// significant bit first. Every character must have a code point in 0..255;
// anything else fails with ENCODING_DOMAIN.
func TextToBits(s string) ([]byte, error) {
	bits := make([]byte, 0, len(s)*8)
	i := 0
	for _, r := range s {
		if r > 0xff {
			return nil, errors.New(errors.ErrCodeEncodingDomain,
				"character %q (U+%04X) at index %d is outside the single-byte range", r, r, i)
		}
		bits = appendByteBits(bits, byte(r))
		i++
	}
	return bits, nil
}

// appendByteBits appends the eight bits of b, MSB first.
func appendByteBits(bits []byte, b byte) []byte {
	return append(bits,
		b>>7&1, b>>6&1, b>>5&1, b>>4&1,
		b>>3&1, b>>2&1, b>>1&1, b&1,
	)
}

// BitsToText packs bits into characters, eight bits per character, each
// group read as a big-endian byte and mapped to the character with that code
// point. The length of bits must be a multiple of 8.
func BitsToText(bits []byte) (string, error) {
	if len(bits)%8 != 0 {
		return "", errors.New(errors.ErrCodeFormat, "bit count %d is not a multiple of 8", len(bits))
	}
	var sb strings.Builder
	sb.Grow(len(bits) / 8)
	for i := 0; i < len(bits); i += 8 {
		var b byte
		for _, bit := range bits[i : i+8] {
			b = b<<1 | bit&1
		}
		if b < 0x80 {
			sb.WriteByte(b)
		} else {
			sb.WriteRune(rune(b))
		}
	}
	return sb.String(), nil
}

// BitLen returns the number of bits s occupies in the stream.
func BitLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n * 8
}
