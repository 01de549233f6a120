package raster

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/matzehuels/stegaplots/pkg/errors"
)

// Format names of the supported lossless encodings.
const (
	FormatPNG  = "png"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

// ValidFormats is the set of formats [Encode] and [Save] can write.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatBMP:  true,
	FormatTIFF: true,
}

// lossyExts lists extensions whose codecs would destroy embedded parity bits.
var lossyExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".jfif": true, ".webp": true, ".heic": true, ".avif": true,
}

// FormatFromPath maps a file extension to a format name.
// Lossy extensions fail with UNSUPPORTED; unknown ones with INVALID_PATH.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	}
	if lossyExts[ext] {
		return "", errors.New(errors.ErrCodeUnsupported,
			"%s is a lossy format; embedded data needs a lossless image (png, bmp, tiff)", ext)
	}
	return "", errors.New(errors.ErrCodeInvalidPath, "unrecognized image extension %q (want .png, .bmp or .tiff)", ext)
}

// Decode reads a PNG, BMP or TIFF image from r.
// JPEG and other formats fail with UNSUPPORTED.
func Decode(r io.Reader) (image.Image, string, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(8)

	var (
		img    image.Image
		format string
		err    error
	)
	switch {
	case bytes.HasPrefix(head, []byte("\x89PNG\r\n\x1a\n")):
		format = FormatPNG
		img, err = png.Decode(br)
	case bytes.HasPrefix(head, []byte("BM")):
		format = FormatBMP
		img, err = bmp.Decode(br)
	case bytes.HasPrefix(head, []byte("II*\x00")), bytes.HasPrefix(head, []byte("MM\x00*")):
		format = FormatTIFF
		img, err = tiff.Decode(br)
	case bytes.HasPrefix(head, []byte("\xff\xd8")):
		return nil, "", errors.New(errors.ErrCodeUnsupported, "JPEG images are lossy and cannot carry embedded data")
	default:
		return nil, "", errors.New(errors.ErrCodeUnsupported, "unrecognized image format")
	}
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeFormat, err, "decode %s", format)
	}
	return img, format, nil
}

// Encode writes img to w in the given lossless format.
func Encode(w io.Writer, img image.Image, format string) error {
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// Open decodes the image file at path.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open image %s", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Save encodes img in the format implied by path's extension.
// The file is written to a temporary sibling and renamed into place so a
// failed encode never leaves a truncated image behind.
func Save(path string, img image.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".stegaplots-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := Encode(bw, img, format); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
