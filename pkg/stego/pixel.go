package stego

import (
	"math"

	"github.com/matzehuels/stegaplots/pkg/errors"
)

// EncodeBit returns sample adjusted so its parity equals bit. A sample that
// already has the right parity is returned unchanged; otherwise it is
// incremented, or decremented when it is already 255. The result never
// differs from sample by more than one.
func EncodeBit(sample uint8, bit byte) uint8 {
	if sample&1 == bit&1 {
		return sample
	}
	if sample < 0xff {
		return sample + 1
	}
	return sample - 1
}

// DecodeBit returns the parity of sample.
func DecodeBit(sample uint8) byte {
	return sample & 1
}

// Embed writes bits into the parity of the leading samples and returns the
// result as a new slice. Samples past len(bits) are copied unchanged.
//
// Capacity is checked before anything is written: when samples is shorter
// than bits, Embed returns a *errors.CapacityError and samples is untouched.
func Embed(samples, bits []byte) ([]byte, error) {
	if len(samples) < len(bits) {
		return nil, &errors.CapacityError{
			Shape:     []int{len(samples)},
			Available: len(samples),
			Required:  len(bits),
		}
	}
	out := make([]byte, len(samples))
	copy(out, samples)
	for i, bit := range bits {
		out[i] = EncodeBit(out[i], bit)
	}
	return out, nil
}

// ExtractBits reads the parity of n samples starting at offset, in the same
// order [Embed] writes them.
func ExtractBits(samples []byte, offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "negative bit range [%d, +%d)", offset, n)
	}
	if offset > len(samples) || n > len(samples)-offset {
		required := offset + n
		if required < offset {
			required = math.MaxInt
		}
		return nil, &errors.CapacityError{
			Shape:     []int{len(samples)},
			Available: len(samples),
			Required:  required,
		}
	}
	bits := make([]byte, n)
	for i, s := range samples[offset : offset+n] {
		bits[i] = DecodeBit(s)
	}
	return bits, nil
}
