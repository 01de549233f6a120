package stego

import (
	"image"

	"github.com/matzehuels/stegaplots/pkg/errors"
	"github.com/matzehuels/stegaplots/pkg/payload"
	"github.com/matzehuels/stegaplots/pkg/raster"
)

// Stream is a fully assembled bitstream: header, params block, code block.
type Stream struct {
	Header Header
	Params string // canonical JSON
	Code   string // base64(deflate(canonical JSON))
	Bits   []byte
}

// Len returns the number of bits (and carrier samples) the stream needs.
func (s *Stream) Len() int {
	return len(s.Bits)
}

// Fits reports whether c has enough samples to hold the stream.
func (s *Stream) Fits(c *raster.Carrier) bool {
	return c.Len() >= s.Len()
}

// Encode serializes params and code and assembles the bitstream that
// [InsertCarrier] embeds.
func Encode(params payload.Params, code payload.Code) (*Stream, error) {
	paramsStr, err := payload.DictToStr(params)
	if err != nil {
		return nil, err
	}
	codeJSON, err := payload.DictToStr(code)
	if err != nil {
		return nil, err
	}
	codeStr, err := payload.Compress(codeJSON)
	if err != nil {
		return nil, err
	}

	h := Header{
		Version:    Version,
		ParamsBits: BitLen(paramsStr),
		CodeBits:   BitLen(codeStr),
	}
	bits, err := TextToBits(h.Text() + paramsStr + codeStr)
	if err != nil {
		return nil, err
	}
	return &Stream{Header: h, Params: paramsStr, Code: codeStr, Bits: bits}, nil
}

// InsertCarrier embeds params and code into a copy of c. When c is too small
// the returned error is a *errors.CapacityError carrying the carrier shape,
// its sample count and the bits required; c is never modified.
func InsertCarrier(c *raster.Carrier, params payload.Params, code payload.Code) (*raster.Carrier, error) {
	s, err := Encode(params, code)
	if err != nil {
		return nil, err
	}
	return s.Embed(c)
}

// Embed writes the stream into a copy of c.
func (s *Stream) Embed(c *raster.Carrier) (*raster.Carrier, error) {
	if !s.Fits(c) {
		return nil, &errors.CapacityError{
			Shape:     c.Shape(),
			Available: c.Len(),
			Required:  s.Len(),
		}
	}
	samples, err := Embed(c.Samples, s.Bits)
	if err != nil {
		return nil, err
	}
	return &raster.Carrier{Rect: c.Rect, Channels: c.Channels, Samples: samples}, nil
}

// Insert embeds params and code into img and returns a new image with the
// same dimensions and channel layout. img is not modified.
func Insert(img image.Image, params payload.Params, code payload.Code) (image.Image, error) {
	out, err := InsertCarrier(raster.FromImage(img), params, code)
	if err != nil {
		return nil, err
	}
	return out.Image(), nil
}

// Result holds the blocks recovered from a carrier.
type Result struct {
	Header Header
	Params string // canonical JSON
	Code   string // canonical JSON, empty when only params were requested
}

// ReadHeader decodes the header at the start of c.
func ReadHeader(c *raster.Carrier) (Header, error) {
	if c.Len() < HeaderBits {
		return Header{}, errors.New(errors.ErrCodeFormat,
			"image has %d samples, fewer than the %d-bit header", c.Len(), HeaderBits)
	}
	bits, err := ExtractBits(c.Samples, 0, HeaderBits)
	if err != nil {
		return Header{}, err
	}
	text, err := BitsToText(bits)
	if err != nil {
		return Header{}, err
	}
	return ParseHeader(text)
}

// ExtractCarrier recovers the params block, and unless paramsOnly is set the
// decompressed code block, using only the header embedded in c.
//
// With paramsOnly the code region is never read, so a truncated or corrupt
// code block does not cause an error.
func ExtractCarrier(c *raster.Carrier, paramsOnly bool) (*Result, error) {
	h, err := ReadHeader(c)
	if err != nil {
		return nil, err
	}

	paramsStr, err := readBlock(c, HeaderBits, h.ParamsBits, "params")
	if err != nil {
		return nil, err
	}
	res := &Result{Header: h, Params: paramsStr}
	if paramsOnly {
		return res, nil
	}

	compressed, err := readBlock(c, HeaderBits+h.ParamsBits, h.CodeBits, "code")
	if err != nil {
		return nil, err
	}
	res.Code, err = payload.Decompress(compressed)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// readBlock decodes n bits at offset. Callers guarantee offset <= c.Len(), so
// the bounds check cannot overflow.
func readBlock(c *raster.Carrier, offset, n int, name string) (string, error) {
	if n > c.Len()-offset {
		return "", errors.New(errors.ErrCodeFormat,
			"header declares a %d-bit %s block at bit %d but the image holds only %d samples",
			n, name, offset, c.Len())
	}
	bits, err := ExtractBits(c.Samples, offset, n)
	if err != nil {
		return "", err
	}
	return BitsToText(bits)
}

// Extract recovers the params and code blocks from img as canonical JSON
// text. With paramsOnly the code string is empty and the code region is not
// decoded.
//
// Lossless encoders store an RGBA image whose alpha is 255 everywhere as
// plain RGB. When no header is found in a 3-channel image, Extract retries
// with an implied opaque alpha channel so such files still decode.
func Extract(img image.Image, paramsOnly bool) (params, code string, err error) {
	res, err := ExtractImage(img, paramsOnly)
	if err != nil {
		return "", "", err
	}
	return res.Params, res.Code, nil
}

// ExtractImage is like [Extract] but returns the full [Result].
func ExtractImage(img image.Image, paramsOnly bool) (*Result, error) {
	c := raster.FromImage(img)
	res, err := ExtractCarrier(c, paramsOnly)
	if err != nil && c.Channels == 3 && errors.Is(err, errors.ErrCodeFormat) {
		if alt, altErr := ExtractCarrier(c.WithAlpha(), paramsOnly); altErr == nil {
			return alt, nil
		}
	}
	return res, err
}

// HasHeader reports whether img starts with a parseable header, in its own
// layout or the implied-alpha layout [ExtractImage] falls back to. It lets
// callers tell an image without metadata from one whose payload is damaged.
func HasHeader(img image.Image) bool {
	c := raster.FromImage(img)
	if _, err := ReadHeader(c); err == nil {
		return true
	}
	if c.Channels != 3 {
		return false
	}
	_, err := ReadHeader(c.WithAlpha())
	return err == nil
}

// Capacity describes how much a carrier can hold.
type Capacity struct {
	Samples     int // total samples, one bit each
	HeaderBits  int // bits reserved for the header
	PayloadBits int // bits left for the params and code blocks
}

// PayloadBytes returns the payload capacity in single-byte characters.
func (c Capacity) PayloadBytes() int {
	return c.PayloadBits / 8
}

// Fits reports whether params and code would fit in c, without embedding.
func Fits(c *raster.Carrier, params payload.Params, code payload.Code) (bool, error) {
	s, err := Encode(params, code)
	if err != nil {
		return false, err
	}
	return s.Fits(c), nil
}

// CapacityOf reports the capacity of c.
func CapacityOf(c *raster.Carrier) Capacity {
	usable := c.Len() - HeaderBits
	if usable < 0 {
		usable = 0
	}
	return Capacity{Samples: c.Len(), HeaderBits: HeaderBits, PayloadBits: usable}
}
