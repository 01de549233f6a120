package stego

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/stegaplots/pkg/errors"
)

const (
	// Magic identifies a stegaplots bitstream.
	Magic = "stegaplots"

	// Version is the bitstream layout version written into new headers.
	Version = "0.0.1"

	// HeaderLen is the fixed header size in characters.
	HeaderLen = 64

	// HeaderBits is the fixed header size in bits.
	HeaderBits = HeaderLen * 8

	// MaxBlockBits bounds each declared block length.
	MaxBlockBits = math.MaxInt32
)

// Header declares the sizes of the two blocks that follow it.
type Header struct {
	Version    string
	ParamsBits int
	CodeBits   int
}

// Text renders the header padded with spaces to exactly [HeaderLen]
// characters. It panics if the unpadded text is longer than that: with a
// short version string and two decimal int fields this cannot happen, so an
// overflow means the format itself was changed incorrectly.
func (h Header) Text() string {
	s := fmt.Sprintf("%s-%s-%d-%d", Magic, h.Version, h.ParamsBits, h.CodeBits)
	if len(s) > HeaderLen {
		panic(fmt.Sprintf("stego: header %q exceeds %d characters", s, HeaderLen))
	}
	return s + strings.Repeat(" ", HeaderLen-len(s))
}

// TotalBits returns the length of the whole stream the header describes.
func (h Header) TotalBits() int {
	return HeaderBits + h.ParamsBits + h.CodeBits
}

// ParseHeader decodes header text read from an image. The text must split on
// '-' into exactly four fields, start with [Magic] and carry two
// non-negative bit lengths that are multiples of 8 and at most
// [MaxBlockBits]. Any violation fails with FORMAT.
func ParseHeader(text string) (Header, error) {
	fields := strings.Split(text, "-")
	if len(fields) != 4 || fields[0] != Magic {
		return Header{}, errors.New(errors.ErrCodeFormat, "no stegaplots header found")
	}

	paramsBits, err := parseBitLen(fields[2])
	if err != nil {
		return Header{}, errors.Wrap(errors.ErrCodeFormat, err, "params length")
	}
	codeBits, err := parseBitLen(fields[3])
	if err != nil {
		return Header{}, errors.Wrap(errors.ErrCodeFormat, err, "code length")
	}

	return Header{
		Version:    fields[1],
		ParamsBits: paramsBits,
		CodeBits:   codeBits,
	}, nil
}

func parseBitLen(field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimRight(field, " "))
	if err != nil {
		return 0, err
	}
	if n < 0 || n > MaxBlockBits || n%8 != 0 {
		return 0, fmt.Errorf("invalid bit length %d", n)
	}
	return n, nil
}
