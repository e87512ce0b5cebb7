package watcher

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/panorama/pkg/errors"
)

// Watcher reports changes to a single file.
//
// It watches the parent directory rather than the file so that editors that
// save by writing a temp file and renaming it over the original keep
// triggering events.
type Watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	debounce *Debouncer
	logger   *log.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = NewDebouncer(d) }
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New starts watching path. The file need not exist yet but its directory
// must.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", path)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "watch %s", filepath.Dir(abs))
	}

	w := &Watcher{
		path:     abs,
		fsw:      fsw,
		debounce: NewDebouncer(0),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run delivers debounced change notifications to onChange until ctx is done
// or the watcher is closed. onChange runs on a timer goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.debounce.Cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("manifest changed", "path", ev.Name, "op", ev.Op.String())
			w.debounce.Trigger(onChange)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.debounce.Cancel()
	return w.fsw.Close()
}
