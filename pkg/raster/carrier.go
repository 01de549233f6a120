// Package raster adapts images to the flat sample buffer the stego codec
// works on, and loads and saves them in lossless formats.
//
// # Sample order
//
// A [Carrier] stores every 8-bit channel value of an image in one slice,
// row by row, pixel by pixel, with channels interleaved:
//
//	R(0,0) G(0,0) B(0,0) A(0,0) R(1,0) G(1,0) ...
//
// This is the order the codec embeds bits in, so [FromImage] followed by
// [Carrier.Image] must reproduce the same layout exactly.
//
// # Channel layouts
//
//   - *image.Gray: 1 channel
//   - *image.RGBA that is fully opaque: 3 channels (alpha is implied)
//   - *image.NRGBA: 4 channels
//   - *image.Paletted with a 256-level gray palette: 1 channel
//   - anything else: converted to NRGBA, 3 channels when opaque, else 4
//
// Translucent images are converted to NRGBA because a premultiplied RGBA
// pixel cannot hold an alpha change without touching its color values.
package raster

import (
	"image"
	"image/color"
	"image/draw"
)

// Carrier is an image flattened into raster-major, channel-minor samples.
type Carrier struct {
	Rect     image.Rectangle
	Channels int
	Samples  []uint8
}

// FromImage copies img into a new Carrier. The image is not modified.
func FromImage(img image.Image) *Carrier {
	switch m := img.(type) {
	case *image.Gray:
		return fromPix(m.Rect, 1, m.Pix, m.Stride, 1)
	case *image.NRGBA:
		return fromPix(m.Rect, 4, m.Pix, m.Stride, 4)
	case *image.RGBA:
		if m.Opaque() {
			return fromPix(m.Rect, 3, m.Pix, m.Stride, 4)
		}
	case *image.Paletted:
		if isGrayRamp(m.Palette) {
			g := image.NewGray(m.Rect)
			draw.Draw(g, m.Rect, m, m.Rect.Min, draw.Src)
			return fromPix(g.Rect, 1, g.Pix, g.Stride, 1)
		}
	}

	b := img.Bounds()
	nrgba := image.NewNRGBA(b)
	draw.Draw(nrgba, b, img, b.Min, draw.Src)
	if nrgba.Opaque() {
		return fromPix(nrgba.Rect, 3, nrgba.Pix, nrgba.Stride, 4)
	}
	return fromPix(nrgba.Rect, 4, nrgba.Pix, nrgba.Stride, 4)
}

// isGrayRamp reports whether p is the 256-entry gray palette BMP and TIFF
// encoders write for *image.Gray.
func isGrayRamp(p color.Palette) bool {
	if len(p) != 256 {
		return false
	}
	for i, c := range p {
		r, g, b, a := c.RGBA()
		v := uint32(i) * 0x101
		if r != v || g != v || b != v || a != 0xffff {
			return false
		}
	}
	return true
}

// fromPix copies the first channels bytes of every bpp-byte pixel.
func fromPix(r image.Rectangle, channels int, pix []uint8, stride, bpp int) *Carrier {
	w, h := r.Dx(), r.Dy()
	samples := make([]uint8, 0, w*h*channels)
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*bpp]
		if channels == bpp {
			samples = append(samples, row...)
			continue
		}
		for x := 0; x < w; x++ {
			samples = append(samples, row[x*bpp:x*bpp+channels]...)
		}
	}
	return &Carrier{Rect: r, Channels: channels, Samples: samples}
}

// Image rebuilds an image with the carrier's dimensions and channel layout.
// The returned image does not share memory with the carrier.
func (c *Carrier) Image() image.Image {
	w, h := c.Rect.Dx(), c.Rect.Dy()
	switch c.Channels {
	case 1:
		m := image.NewGray(c.Rect)
		copy(m.Pix, c.Samples)
		return m
	case 3:
		m := image.NewRGBA(c.Rect)
		for i, j := 0, 0; i < w*h; i, j = i+1, j+3 {
			copy(m.Pix[i*4:i*4+3], c.Samples[j:j+3])
			m.Pix[i*4+3] = 0xff
		}
		return m
	default:
		m := image.NewNRGBA(c.Rect)
		copy(m.Pix, c.Samples)
		return m
	}
}

// WithAlpha expands a 3-channel carrier to 4 channels with every alpha
// sample set to 255. Lossless encoders drop a fully opaque alpha channel, so
// this recovers the layout of an RGBA image that was saved without one.
// Carriers with any other channel count are returned as a copy.
func (c *Carrier) WithAlpha() *Carrier {
	if c.Channels != 3 {
		return c.Clone()
	}
	n := len(c.Samples) / 3
	s := make([]uint8, 0, n*4)
	for i := 0; i < n; i++ {
		s = append(s, c.Samples[i*3:i*3+3]...)
		s = append(s, 0xff)
	}
	return &Carrier{Rect: c.Rect, Channels: 4, Samples: s}
}

// Clone returns a deep copy of the carrier.
func (c *Carrier) Clone() *Carrier {
	s := make([]uint8, len(c.Samples))
	copy(s, c.Samples)
	return &Carrier{Rect: c.Rect, Channels: c.Channels, Samples: s}
}

// Len returns the number of samples, which is the carrier's capacity in bits.
func (c *Carrier) Len() int {
	return len(c.Samples)
}

// Shape returns the carrier dimensions as [height, width, channels].
func (c *Carrier) Shape() []int {
	return []int{c.Rect.Dy(), c.Rect.Dx(), c.Channels}
}

// ColorModel reports the color model of images produced by [Carrier.Image].
func (c *Carrier) ColorModel() color.Model {
	switch c.Channels {
	case 1:
		return color.GrayModel
	case 3:
		return color.RGBAModel
	default:
		return color.NRGBAModel
	}
}
