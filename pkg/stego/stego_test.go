package stego

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	stegoerrors "github.com/matzehuels/stegaplots/pkg/errors"
	"github.com/matzehuels/stegaplots/pkg/payload"
	"github.com/matzehuels/stegaplots/pkg/raster"
)

// plotImage draws a white opaque canvas with a dark sine curve, the kind of
// image a plotting library produces.
func plotImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	for x := 0; x < w; x++ {
		y := h/2 + int(float64(h/3)*math.Sin(float64(x)/8))
		img.SetRGBA(x, y, color.RGBA{31, 119, 180, 255})
	}
	return img
}

func translucentImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 128
	}
	return img
}

func grayImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	return img
}

func mustCanonical(t *testing.T, v any) string {
	t.Helper()
	s, err := payload.DictToStr(v)
	if err != nil {
		t.Fatalf("DictToStr: %v", err)
	}
	return s
}

func TestInsertExtractRoundTrip(t *testing.T) {
	params := payload.Params{"n": 500, "seed": 4, "sig": 1000, "label": "σ = 1000"}
	code := payload.Code{
		"plot.py": "import numpy as np\n\nx = np.linspace(0, 1, 500)\n",
		"util.py": "def f(x):\n    return x ** 2\n",
	}

	images := map[string]image.Image{
		"rgb":  plotImage(120, 80),
		"rgba": translucentImage(100, 60),
		"gray": grayImage(200, 150),
	}
	for name, img := range images {
		t.Run(name, func(t *testing.T) {
			out, err := Insert(img, params, code)
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if out.Bounds() != img.Bounds() {
				t.Errorf("bounds = %v, want %v", out.Bounds(), img.Bounds())
			}
			if got, want := raster.FromImage(out).Channels, raster.FromImage(img).Channels; got != want {
				t.Errorf("channels = %d, want %d", got, want)
			}

			gotParams, gotCode, err := Extract(out, false)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if want := mustCanonical(t, params); gotParams != want {
				t.Errorf("params = %s, want %s", gotParams, want)
			}
			if want := mustCanonical(t, code); gotCode != want {
				t.Errorf("code = %s, want %s", gotCode, want)
			}

			decoded, err := payload.StrToCode(gotCode)
			if err != nil {
				t.Fatalf("StrToCode: %v", err)
			}
			if decoded["util.py"] != code["util.py"] {
				t.Errorf("util.py = %q", decoded["util.py"])
			}
		})
	}
}

func TestInsertExtractEmpty(t *testing.T) {
	out, err := Insert(plotImage(64, 64), payload.Params{}, nil)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	params, code, err := Extract(out, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if params != "{}" || code != "{}" {
		t.Errorf("Extract = %q, %q, want {} {}", params, code)
	}
}

func TestInsertDoesNotMutateInput(t *testing.T) {
	img := plotImage(64, 64)
	before := append([]uint8(nil), img.Pix...)

	out, err := Insert(img, payload.Params{"seed": 4}, payload.Code{"a.py": "pass"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !bytes.Equal(img.Pix, before) {
		t.Error("Insert modified the input image")
	}

	orig, mod := raster.FromImage(img), raster.FromImage(out)
	if changed := raster.ChangedSamples(orig, mod); changed == 0 {
		t.Error("no samples changed")
	}
	for i := range orig.Samples {
		d := int(orig.Samples[i]) - int(mod.Samples[i])
		if d < -1 || d > 1 {
			t.Fatalf("sample %d moved by %d", i, d)
		}
	}
	if psnr := raster.PSNR(orig, mod); psnr < 50 {
		t.Errorf("PSNR = %.1f dB, want > 50", psnr)
	}
}

func TestInsertDeterministic(t *testing.T) {
	img := plotImage(64, 64)
	params := payload.Params{"b": 2, "a": 1}
	code := payload.Code{"x.py": "x = 1"}

	a, err := Insert(img, params, code)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Insert(img, params, code)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raster.FromImage(a).Samples, raster.FromImage(b).Samples) {
		t.Error("Insert is not deterministic")
	}
}

func TestInsertCapacity(t *testing.T) {
	img := plotImage(40, 30)
	c := raster.FromImage(img)
	before := append([]uint8(nil), c.Samples...)

	huge := payload.Params{"huge": strings.Repeat(" ", c.Len()/8+1)}
	out, err := InsertCarrier(c, huge, nil)
	if out != nil {
		t.Error("InsertCarrier returned a carrier on failure")
	}
	var ce *stegoerrors.CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *CapacityError", err)
	}
	if ce.Available != c.Len() || ce.Required <= c.Len() {
		t.Errorf("CapacityError = %+v", ce)
	}
	if want := []int{30, 40, 3}; len(ce.Shape) != 3 || ce.Shape[0] != want[0] || ce.Shape[1] != want[1] || ce.Shape[2] != want[2] {
		t.Errorf("Shape = %v, want %v", ce.Shape, want)
	}
	if !bytes.Equal(c.Samples, before) {
		t.Error("failed insert modified the carrier")
	}

	if _, err := Insert(img, huge, nil); !stegoerrors.Is(err, stegoerrors.ErrCodeCapacity) {
		t.Errorf("Insert err = %v, want CAPACITY", err)
	}
}

func TestFits(t *testing.T) {
	c := raster.FromImage(plotImage(40, 30))

	ok, err := Fits(c, payload.Params{"seed": 4}, nil)
	if err != nil || !ok {
		t.Errorf("Fits(small) = %v, %v", ok, err)
	}
	ok, err = Fits(c, payload.Params{"huge": strings.Repeat("x", c.Len())}, nil)
	if err != nil || ok {
		t.Errorf("Fits(huge) = %v, %v", ok, err)
	}
}

func TestExtractParamsOnly(t *testing.T) {
	params := payload.Params{"seed": 4}
	code := payload.Code{"plot.py": strings.Repeat("print('hello')\n", 20)}

	s, err := Encode(params, code)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	embedded, err := s.Embed(raster.FromImage(plotImage(120, 80)))
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	t.Run("truncated", func(t *testing.T) {
		short := embedded.Clone()
		short.Samples = short.Samples[:HeaderBits+s.Header.ParamsBits]

		res, err := ExtractCarrier(short, true)
		if err != nil {
			t.Fatalf("ExtractCarrier(paramsOnly): %v", err)
		}
		if res.Params != `{"seed":4}` || res.Code != "" {
			t.Errorf("Result = %+v", res)
		}
		if _, err := ExtractCarrier(short, false); !stegoerrors.Is(err, stegoerrors.ErrCodeFormat) {
			t.Errorf("full extract err = %v, want FORMAT", err)
		}
	})

	t.Run("corrupt code", func(t *testing.T) {
		bad := embedded.Clone()
		start := HeaderBits + s.Header.ParamsBits
		for i := start; i < start+s.Header.CodeBits; i++ {
			bad.Samples[i] ^= 1
		}

		params, code, err := Extract(bad.Image(), true)
		if err != nil {
			t.Fatalf("Extract(paramsOnly): %v", err)
		}
		if params != `{"seed":4}` || code != "" {
			t.Errorf("Extract = %q, %q", params, code)
		}
		if _, _, err := Extract(bad.Image(), false); !stegoerrors.Is(err, stegoerrors.ErrCodeParse) {
			t.Errorf("full extract err = %v, want PARSE", err)
		}
	})
}

func TestHeaderSelfDescribing(t *testing.T) {
	img := plotImage(160, 120)
	payloads := []struct {
		params payload.Params
		code   payload.Code
	}{
		{payload.Params{"a": 1}, nil},
		{payload.Params{"alpha": 0.5, "beta": []any{1, 2, 3}, "name": "scatter"},
			payload.Code{"main.py": strings.Repeat("plt.plot(x, y)\n", 10)}},
	}

	var headers []Header
	for _, p := range payloads {
		s, err := Encode(p.params, p.code)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		out, err := s.Embed(raster.FromImage(img))
		if err != nil {
			t.Fatalf("Embed: %v", err)
		}
		res, err := ExtractCarrier(out, false)
		if err != nil {
			t.Fatalf("ExtractCarrier: %v", err)
		}
		if res.Header != s.Header {
			t.Errorf("header = %+v, want %+v", res.Header, s.Header)
		}
		if res.Params != s.Params {
			t.Errorf("params = %s, want %s", res.Params, s.Params)
		}
		if want := mustCanonical(t, p.code); res.Code != want {
			t.Errorf("code = %s, want %s", res.Code, want)
		}
		headers = append(headers, res.Header)
	}
	if headers[0] == headers[1] {
		t.Error("distinct payloads produced identical headers")
	}
}

func TestExtractLegacyLayout(t *testing.T) {
	// Streams written by other producers may use spaced JSON separators.
	params := `{"n": 500, "seed": 4}`
	code, err := payload.Compress(`{"plot.py": "x = 1"}`)
	if err != nil {
		t.Fatal(err)
	}
	h := Header{Version: Version, ParamsBits: BitLen(params), CodeBits: BitLen(code)}
	bits, err := TextToBits(h.Text() + params + code)
	if err != nil {
		t.Fatal(err)
	}

	c := raster.FromImage(plotImage(64, 64))
	samples, err := Embed(c.Samples, bits)
	if err != nil {
		t.Fatal(err)
	}
	c.Samples = samples

	res, err := ExtractCarrier(c, false)
	if err != nil {
		t.Fatalf("ExtractCarrier: %v", err)
	}
	if res.Params != params || res.Code != `{"plot.py": "x = 1"}` {
		t.Errorf("Result = %+v", res)
	}
}

func TestExtractNotEmbedded(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"plain plot", plotImage(64, 64)},
		{"plain translucent", translucentImage(32, 32)},
		{"too small", grayImage(10, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Extract(tt.img, false)
			if !stegoerrors.Is(err, stegoerrors.ErrCodeFormat) {
				t.Errorf("err = %v, want FORMAT", err)
			}
		})
	}
}

func TestExtractAfterPNG(t *testing.T) {
	for name, img := range map[string]image.Image{
		"rgb":  plotImage(96, 64),
		"rgba": translucentImage(64, 64),
		"gray": grayImage(128, 64),
	} {
		t.Run(name, func(t *testing.T) {
			out, err := Insert(img, payload.Params{"seed": 4}, payload.Code{"a.py": "pass"})
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			var buf bytes.Buffer
			if err := png.Encode(&buf, out); err != nil {
				t.Fatalf("png.Encode: %v", err)
			}
			decoded, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("png.Decode: %v", err)
			}
			params, code, err := Extract(decoded, false)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if params != `{"seed":4}` || code != `{"a.py":"pass"}` {
				t.Errorf("Extract = %s, %s", params, code)
			}
		})
	}
}

func TestHeaderText(t *testing.T) {
	h := Header{Version: Version, ParamsBits: 232, CodeBits: 1024}
	text := h.Text()
	if len(text) != HeaderLen {
		t.Fatalf("len(Text) = %d, want %d", len(text), HeaderLen)
	}
	if !strings.HasPrefix(text, "stegaplots-0.0.1-232-1024 ") {
		t.Errorf("Text = %q", text)
	}
	if h.TotalBits() != HeaderBits+232+1024 {
		t.Errorf("TotalBits = %d", h.TotalBits())
	}

	got, err := ParseHeader(text)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if got != h {
		t.Errorf("ParseHeader = %+v, want %+v", got, h)
	}
}

func TestHeaderTextOverflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for oversized header")
		}
	}()
	_ = Header{Version: strings.Repeat("9", HeaderLen)}.Text()
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []string{
		"",
		strings.Repeat(" ", HeaderLen),
		"stegaplots-0.0.1-8",
		"stegaplots-0.0.1-8-8-8",
		"stegaplot-0.0.1-8-8",
		"stegaplots-0.0-1-8-8",
		"stegaplots-0.0.1-7-8",
		"stegaplots-0.0.1-8-x",
		"stegaplots-0.0.1- 8-8",
		"stegaplots-0.0.1--8-8",
		"stegaplots-0.0.1-2147483648-0",
		"stegaplots-0.0.1-9223372036854775800-0",
		"stegaplots-0.0.1-16-9223372036854775800",
	}
	for _, text := range tests {
		if _, err := ParseHeader(text); !stegoerrors.Is(err, stegoerrors.ErrCodeFormat) {
			t.Errorf("ParseHeader(%q) err = %v, want FORMAT", text, err)
		}
	}
}

func TestParseHeaderLargestBlock(t *testing.T) {
	h, err := ParseHeader("stegaplots-0.0.1-2147483640-0")
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.ParamsBits != 2147483640 {
		t.Errorf("ParamsBits = %d", h.ParamsBits)
	}
}

func TestExtractHugeDeclaredLength(t *testing.T) {
	tests := []struct {
		header       string
		paramsOnlyOK bool // the params block itself fits
	}{
		{"stegaplots-0.0.1-9223372036854775800-0", false},
		{"stegaplots-0.0.1-16-9223372036854775800", false},
		{"stegaplots-0.0.1-2147483640-0", false},
		{"stegaplots-0.0.1-16-2147483640", true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			c := raster.FromImage(plotImage(40, 40))
			padded := tt.header + strings.Repeat(" ", HeaderLen-len(tt.header))
			bits, err := TextToBits(padded + `{"a":1}`)
			if err != nil {
				t.Fatal(err)
			}
			if c.Samples, err = Embed(c.Samples, bits); err != nil {
				t.Fatal(err)
			}

			if _, err := ExtractCarrier(c, false); !stegoerrors.Is(err, stegoerrors.ErrCodeFormat) {
				t.Errorf("full extract err = %v, want FORMAT", err)
			}
			_, err = ExtractCarrier(c, true)
			if tt.paramsOnlyOK && err != nil {
				t.Errorf("params-only extract: %v", err)
			}
			if !tt.paramsOnlyOK && !stegoerrors.Is(err, stegoerrors.ErrCodeFormat) {
				t.Errorf("params-only extract err = %v, want FORMAT", err)
			}
		})
	}
}

func TestHasHeader(t *testing.T) {
	img := plotImage(64, 64)
	if HasHeader(img) {
		t.Error("plain image reported a header")
	}
	out, err := Insert(img, payload.Params{"seed": 4}, payload.Code{})
	if err != nil {
		t.Fatal(err)
	}
	if !HasHeader(out) {
		t.Error("embedded image reported no header")
	}
	translucent, err := Insert(translucentImage(64, 64), payload.Params{}, payload.Code{})
	if err != nil {
		t.Fatal(err)
	}
	if !HasHeader(translucent) {
		t.Error("4-channel embedded image reported no header")
	}
}

func TestCapacityOf(t *testing.T) {
	c := raster.FromImage(plotImage(20, 10))
	capy := CapacityOf(c)
	if capy.Samples != 600 || capy.PayloadBits != 600-HeaderBits || capy.PayloadBytes() != (600-HeaderBits)/8 {
		t.Errorf("CapacityOf = %+v", capy)
	}

	tiny := CapacityOf(raster.FromImage(grayImage(4, 4)))
	if tiny.PayloadBits != 0 {
		t.Errorf("tiny PayloadBits = %d, want 0", tiny.PayloadBits)
	}
}
