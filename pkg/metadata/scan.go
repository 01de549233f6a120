package metadata

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/stegaplots/pkg/cache"
	"github.com/matzehuels/stegaplots/pkg/errors"
	"github.com/matzehuels/stegaplots/pkg/raster"
)

// ScanOptions configures [Scan].
type ScanOptions struct {
	// Cache stores per-file results keyed by content hash. Nil disables caching.
	Cache cache.Cache

	// Keyer builds cache keys. Nil uses the default keyer.
	Keyer cache.Keyer

	// TTL is the cache entry lifetime. Zero keeps entries until cleared.
	TTL time.Duration

	// Full also decodes the code block. By default only params are read.
	Full bool

	// OnResult, if set, is called for every embedded image as it is found.
	OnResult func(ScanResult)
}

// ScanResult describes one image that carries a stegaplots header.
type ScanResult struct {
	Path     string    `json:"path"`
	Header   string    `json:"header,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Err      string    `json:"error,omitempty"`
	Cached   bool      `json:"-"`
}

// ScanReport summarizes a directory scan.
type ScanReport struct {
	Results   []ScanResult `json:"results"`
	Checked   int          `json:"checked"`
	Skipped   int          `json:"skipped"`
	CacheHits int          `json:"cache_hits"`
}

// Scan walks root and extracts metadata from every lossless image below it.
// Images without a stegaplots header are counted as skipped. Images whose
// header is present but whose payload is damaged are reported with Err set.
// Scan stops with ctx.Err() when ctx is cancelled.
func Scan(ctx context.Context, root string, opts ScanOptions) (*ScanReport, error) {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scan %s", root)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", root)
	}

	reader := &Reader{Cache: opts.Cache, Keyer: opts.Keyer, TTL: opts.TTL}
	report := &ScanReport{Results: []ScanResult{}}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if _, err := raster.FormatFromPath(path); err != nil {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		report.Checked++
		rec, hit, err := reader.Read(ctx, data, !opts.Full)
		if err != nil {
			return err
		}
		if hit {
			report.CacheHits++
		}
		if !rec.Embedded {
			report.Skipped++
			return nil
		}

		res := ScanResult{Path: path, Header: rec.Header, Cached: hit}
		if m, err := rec.Metadata(); err != nil {
			res.Err = errors.UserMessage(err)
		} else {
			res.Metadata = m
		}
		report.Results = append(report.Results, res)
		if opts.OnResult != nil {
			opts.OnResult(res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
