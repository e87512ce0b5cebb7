package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/panorama/pkg/observability"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation when it finishes.
// It is not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered frame (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// debug logs msg at debug level with the elapsed time appended to keyvals.
func (p *progress) debug(msg string, keyvals ...any) {
	p.logger.Debug(msg, append(keyvals, "took", time.Since(p.start).Round(time.Microsecond))...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger stored in ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logHooks reports library events at debug level.
type logHooks struct {
	l *log.Logger
}

var (
	_ observability.LayoutHooks   = logHooks{}
	_ observability.ResolverHooks = logHooks{}
	_ observability.ViewportHooks = logHooks{}
	_ observability.GalleryHooks  = logHooks{}
	_ observability.CacheHooks    = logHooks{}
)

// installLogHooks routes every observability hook to l.
func installLogHooks(l *log.Logger) {
	h := logHooks{l: l.WithPrefix("hooks")}
	observability.SetLayoutHooks(h)
	observability.SetResolverHooks(h)
	observability.SetViewportHooks(h)
	observability.SetGalleryHooks(h)
	observability.SetCacheHooks(h)
}

func (h logHooks) OnLayoutStart(items int) {
	h.l.Debug("layout start", "items", items)
}

func (h logHooks) OnLayoutComplete(items, overlaps int, d time.Duration) {
	h.l.Debug("layout done", "items", items, "overlaps", overlaps, "took", d)
}

func (h logHooks) OnResolve(source string, width int, hit bool) {
	if !hit {
		h.l.Debug("resolved size", "src", source, "width", width)
	}
}

func (h logHooks) OnModeChange(from, to string) {
	h.l.Debug("camera mode", "from", from, "to", to)
}

func (h logHooks) OnTransitionStart(x, y, zoom float64) {
	h.l.Debug("transition start", "x", x, "y", y, "zoom", zoom)
}

func (h logHooks) OnTransitionEnd(completed bool, d time.Duration) {
	h.l.Debug("transition end", "completed", completed, "took", d)
}

// OnFrame is called for every render pass; logging it would flood the
// terminal view.
func (h logHooks) OnFrame(int, int, time.Duration) {}

func (h logHooks) OnSelect(id string) {
	h.l.Debug("select", "item", id)
}

func (h logHooks) OnLoadError(id string, err error) {
	h.l.Debug("load error", "item", id, "err", err)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.l.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.l.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.l.Debug("cache set", "type", keyType, "bytes", size)
}
