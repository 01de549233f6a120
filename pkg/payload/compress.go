package payload

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/matzehuels/stegaplots/pkg/errors"
)

// Compress deflates the UTF-8 bytes of s inside a zlib container and returns
// the standard base64 encoding of the result. The output contains only ASCII
// characters.
func Compress(s string) (string, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := io.WriteString(zw, s); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "deflate")
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "deflate")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Inflation bounds for [Decompress]. A code block may expand to
// MaxInflateRatio times its compressed size, never less than MinInflateLimit
// and never more than MaxInflateLimit bytes.
const (
	MaxInflateRatio = 100
	MinInflateLimit = 1 << 20
	MaxInflateLimit = 64 << 20
)

// Decompress reverses [Compress]. Invalid base64, a corrupt deflate stream or
// output past the inflation bound fails with a PARSE error.
func Decompress(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeParse, err, "decode base64")
	}
	return inflate(raw, inflateLimit(len(raw)))
}

// DecompressLimit is like [Decompress] with an explicit bound on the
// inflated size in bytes.
func DecompressLimit(s string, limit int) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeParse, err, "decode base64")
	}
	return inflate(raw, limit)
}

func inflateLimit(compressed int) int {
	limit := compressed * MaxInflateRatio
	return min(max(limit, MinInflateLimit), MaxInflateLimit)
}

func inflate(raw []byte, limit int) (string, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeParse, err, "inflate")
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, int64(limit)+1))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeParse, err, "inflate")
	}
	if len(out) > limit {
		return "", errors.New(errors.ErrCodeParse, "inflated code block exceeds %d bytes", limit)
	}
	return string(out), nil
}
