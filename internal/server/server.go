// Package server exposes galleries over HTTP.
//
// Each client creates a view (a camera plus gallery of a given size) and
// then drives it with pointer, wheel, activate and reset requests, reading
// back frames as JSON or rendered snapshots. Views live in a session.Store
// and expire when idle.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/items
//	GET    /api/layout?format=json|dot|svg
//	POST   /api/views                       {"width":1280,"height":800}
//	GET    /api/views/{id}                  current frame
//	DELETE /api/views/{id}
//	POST   /api/views/{id}/pointer          {"id":1,"kind":"down","x":10,"y":20}
//	POST   /api/views/{id}/wheel            {"x":10,"y":20,"delta_y":-100}
//	POST   /api/views/{id}/resize           {"width":800,"height":600}
//	POST   /api/views/{id}/activate         {"item":"harbour"}
//	POST   /api/views/{id}/reset            {"token":3}
//	POST   /api/views/{id}/load             {"item":"harbour","error":"404"}
//	GET    /api/views/{id}/snapshot?format=svg|png|json
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/panorama/pkg/cache"
	perrors "github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/layout"
	"github.com/matzehuels/panorama/pkg/resolver"
	"github.com/matzehuels/panorama/pkg/session"
	"github.com/matzehuels/panorama/pkg/viewport"
)

const (
	defaultSnapshotTTL   = 5 * time.Minute
	defaultSweepInterval = time.Minute
	shutdownTimeout      = 5 * time.Second
)

// Server is the HTTP host. Create it with [New].
type Server struct {
	cfg      session.Config
	store    *session.Store
	res      *resolver.Resolver
	snaps    *cache.MemoryCache
	keyer    cache.Keyer
	layout   []layout.Option
	logger   *log.Logger
	baseCtx  context.Context
	sweepInt time.Duration

	layoutOpts cache.LayoutKeyOpts

	mu    sync.RWMutex
	items []item.Item
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and lifecycle logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithTTL sets how long idle views survive.
func WithTTL(d time.Duration) Option {
	return func(s *Server) { s.store = session.NewStore(d) }
}

// WithLayoutKey sets the layout parameters mixed into snapshot cache keys.
// They must describe cfg.Gallery.Layout.
func WithLayoutKey(opts cache.LayoutKeyOpts) Option {
	return func(s *Server) { s.layoutOpts = opts }
}

// New creates a server for items. cfg describes the default view; its
// gallery layout options are used for the /api/layout route as well.
func New(ctx context.Context, cfg session.Config, items []item.Item, opts ...Option) (*Server, error) {
	if err := item.ValidateAll(items); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		store:    session.NewStore(session.DefaultTTL),
		res:      resolver.New(),
		snaps:    cache.NewMemoryCache(),
		keyer:    cache.NewDefaultKeyer(),
		layout:   cfg.Gallery.Layout,
		logger:   log.Default(),
		baseCtx:  ctx,
		sweepInt: defaultSweepInterval,
		items:    append([]item.Item(nil), items...),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.Gallery.Logger == nil {
		s.cfg.Gallery.Logger = s.logger
	}
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "views": s.store.Len()})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/items", s.handleItems)
		r.Get("/layout", s.handleLayout)

		r.Post("/views", s.handleCreateView)
		r.Route("/views/{id}", func(r chi.Router) {
			r.Get("/", s.handleFrame)
			r.Delete("/", s.handleDeleteView)
			r.Post("/pointer", s.handlePointer)
			r.Post("/wheel", s.handleWheel)
			r.Post("/resize", s.handleResize)
			r.Post("/activate", s.handleActivate)
			r.Post("/reset", s.handleReset)
			r.Post("/load", s.handleLoad)
			r.Get("/snapshot", s.handleSnapshot)
		})
	})
	return r
}

// Items returns the current item list.
func (s *Server) Items() []item.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// SetItems replaces the items of the server and of every live view.
func (s *Server) SetItems(items []item.Item) error {
	if err := item.ValidateAll(items); err != nil {
		return err
	}
	s.mu.Lock()
	s.items = append([]item.Item(nil), items...)
	s.mu.Unlock()

	var firstErr error
	s.store.Range(func(v *session.View) bool {
		err := v.Do(func(_ *viewport.Controller, g *gallery.Gallery) {
			if err := g.SetItems(items); err != nil && firstErr == nil {
				firstErr = err
			}
		})
		if err != nil {
			s.logger.Debug("skipping closed view", "view", v.ID)
		}
		return true
	})
	s.snaps.DeletePrefix(viewKeyPrefix)
	s.logger.Info("items reloaded", "items", len(items), "views", s.store.Len())
	return firstErr
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and closes every view.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return perrors.Wrap(perrors.ErrCodeInternal, err, "listen on %s", addr)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.sweep(ctx)
		return nil
	})

	err := g.Wait()
	s.Close()
	return err
}

func (s *Server) sweep(ctx context.Context) {
	t := time.NewTicker(s.sweepInt)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, id := range s.store.Cleanup() {
				s.snaps.DeletePrefix(viewScope(id))
				s.logger.Debug("view expired", "view", id)
			}
			s.snaps.Sweep()
		}
	}
}

// Close destroys every view and drops cached snapshots.
func (s *Server) Close() {
	s.store.Close()
	s.snaps.Close()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"took", time.Since(start).Round(time.Microsecond),
		)
	})
}

const viewKeyPrefix = "view:"

func viewScope(id string) string { return viewKeyPrefix + id + ":" }
