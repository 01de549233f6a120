package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/matzehuels/stegaplots/pkg/cache"
	"github.com/matzehuels/stegaplots/pkg/errors"
	"github.com/matzehuels/stegaplots/pkg/observability"
	"github.com/matzehuels/stegaplots/pkg/raster"
	"github.com/matzehuels/stegaplots/pkg/stego"
)

// Record is the cacheable outcome of reading one encoded image. Blocks are
// kept as the canonical text found in the image so numbers survive a cache
// round trip exactly.
type Record struct {
	// Embedded is set when the image carries a stegaplots header.
	Embedded bool   `json:"embedded"`
	Header   string `json:"header,omitempty"`
	Params   string `json:"params,omitempty"`
	Code     string `json:"code,omitempty"`

	ErrCode errors.Code `json:"error_code,omitempty"`
	Err     string      `json:"error,omitempty"`
}

// Failure returns the failure recorded while reading, or nil.
func (r Record) Failure() error {
	if r.Err == "" {
		return nil
	}
	return errors.New(r.ErrCode, "%s", r.Err)
}

// Metadata decodes the recorded blocks.
func (r Record) Metadata() (*Metadata, error) {
	if err := r.Failure(); err != nil {
		return nil, err
	}
	if !r.Embedded {
		return nil, errors.New(errors.ErrCodeFormat, "no stegaplots header found")
	}
	return Decode(r.Params, r.Code)
}

func failed(embedded bool, err error) Record {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return Record{Embedded: embedded, ErrCode: code, Err: errors.UserMessage(err)}
}

// Reader extracts records from encoded image bytes, consulting a cache keyed
// by content hash first.
type Reader struct {
	// Cache stores records. Nil disables caching.
	Cache cache.Cache

	// Keyer builds cache keys. Nil uses the default keyer.
	Keyer cache.Keyer

	// TTL is the cache entry lifetime. Zero keeps entries until cleared.
	TTL time.Duration
}

// Read decodes data and extracts its metadata. It reports whether the record
// came from the cache. Decode and extraction failures are part of the
// record, not the returned error, so they are cached like any other result.
func (r *Reader) Read(ctx context.Context, data []byte, paramsOnly bool) (Record, bool, error) {
	c := r.Cache
	if c == nil {
		c = cache.NewNullCache()
	}
	keyer := r.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.ScanKey(cache.Hash(data), cache.ScanKeyOpts{ParamsOnly: paramsOnly})

	if cached, ok, err := c.Get(ctx, key); err == nil && ok {
		var rec Record
		if json.Unmarshal(cached, &rec) == nil {
			observability.Cache().OnCacheHit(ctx, "scan")
			return rec, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "scan")

	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	rec := inspect(ctx, data, paramsOnly)
	if encoded, err := json.Marshal(rec); err == nil {
		if c.Set(ctx, key, encoded, r.TTL) == nil {
			observability.Cache().OnCacheSet(ctx, "scan", len(encoded))
		}
	}
	return rec, false, nil
}

func inspect(ctx context.Context, data []byte, paramsOnly bool) Record {
	img, _, err := raster.Decode(bytes.NewReader(data))
	if err != nil {
		return failed(false, err)
	}

	start := time.Now()
	res, err := stego.ExtractImage(img, paramsOnly)
	observability.Codec().OnExtract(ctx, paramsOnly, time.Since(start), err)
	if errors.Is(err, errors.ErrCodeFormat) {
		return failed(stego.HasHeader(img), err)
	}
	if err != nil {
		return failed(true, err)
	}
	return Record{
		Embedded: true,
		Header:   strings.TrimRight(res.Header.Text(), " "),
		Params:   res.Params,
		Code:     res.Code,
	}
}
