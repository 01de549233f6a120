package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stegaplots/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Embedded 1440 bits (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// debugHooks reports codec and cache events at debug level. It is installed
// when --verbose is set.
type debugHooks struct {
	logger *log.Logger
}

func (h debugHooks) OnEmbed(_ context.Context, shape []int, bits int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("embed failed", "shape", shape, "bits", bits, "err", err)
		return
	}
	h.logger.Debug("embed", "shape", shape, "bits", bits, "took", d.Round(time.Microsecond))
}

func (h debugHooks) OnExtract(_ context.Context, paramsOnly bool, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("extract failed", "params_only", paramsOnly, "err", err)
		return
	}
	h.logger.Debug("extract", "params_only", paramsOnly, "took", d.Round(time.Microsecond))
}

func (h debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// installDebugHooks routes observability events to l.
func installDebugHooks(l *log.Logger) {
	h := debugHooks{logger: l}
	observability.SetCodecHooks(h)
	observability.SetCacheHooks(h)
}
