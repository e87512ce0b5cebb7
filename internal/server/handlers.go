package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/panorama/pkg/cache"
	perrors "github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/layout"
	"github.com/matzehuels/panorama/pkg/render"
	"github.com/matzehuels/panorama/pkg/session"
	"github.com/matzehuels/panorama/pkg/viewport"
)

const maxBodyBytes = 1 << 20

// =============================================================================
// Request bodies
// =============================================================================

type sizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type pointerRequest struct {
	ID    int     `json:"id"`
	Kind  string  `json:"kind"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Touch bool    `json:"touch"`
}

func (p pointerRequest) event() (viewport.PointerEvent, error) {
	e := viewport.PointerEvent{ID: p.ID, X: p.X, Y: p.Y, Touch: p.Touch}
	switch strings.ToLower(p.Kind) {
	case "down":
		e.Kind = viewport.PointerDown
	case "move":
		e.Kind = viewport.PointerMove
	case "up":
		e.Kind = viewport.PointerUp
	case "cancel":
		e.Kind = viewport.PointerCancel
	default:
		return e, perrors.New(perrors.ErrCodeInvalidInput, "unknown pointer kind %q", p.Kind)
	}
	return e, nil
}

type wheelRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"delta_y"`
}

type activateRequest struct {
	Item string `json:"item"`
}

type resetRequest struct {
	Token uint64 `json:"token"`
}

type loadRequest struct {
	Item  string `json:"item"`
	Error string `json:"error,omitempty"`
}

type viewResponse struct {
	ID    string        `json:"id"`
	Frame gallery.Frame `json:"frame"`
}

type acceptedResponse struct {
	Accepted bool          `json:"accepted"`
	Frame    gallery.Frame `json:"frame"`
}

// =============================================================================
// Catalog
// =============================================================================

func (s *Server) handleItems(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.Items()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(render.FormatJSON)
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		writeError(w, err)
		return
	}

	l := layout.Compute(s.Items(), s.layout...)
	switch f {
	case render.FormatJSON:
		writeJSON(w, http.StatusOK, l)
	case render.FormatDOT:
		w.Header().Set("Content-Type", f.ContentType())
		io.WriteString(w, layout.ToDOT(l))
	case render.FormatSVG:
		svg, err := render.RenderDOT(r.Context(), layout.ToDOT(l))
		if err != nil {
			writeError(w, err)
			return
		}
		writeBytes(w, f, svg)
	default:
		writeError(w, perrors.New(perrors.ErrCodeUnsupported, "layout cannot be rendered as %s", f))
	}
}

// =============================================================================
// Views
// =============================================================================

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	req := sizeRequest{Width: s.cfg.Width, Height: s.cfg.Height}
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	cfg := s.cfg
	cfg.Width, cfg.Height = req.Width, req.Height
	v, err := session.NewView(s.baseCtx, cfg, s.res, s.Items())
	if err != nil {
		writeError(w, err)
		return
	}
	s.store.Set(v)
	s.logger.Info("view created", "view", v.ID, "width", req.Width, "height", req.Height)

	resp := viewResponse{ID: v.ID}
	v.Do(func(_ *viewport.Controller, g *gallery.Gallery) { resp.Frame = g.Frame() })
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(id); err != nil {
		writeError(w, err)
		return
	}
	s.store.Delete(id)
	s.snaps.DeletePrefix(viewScope(id))
	s.logger.Info("view deleted", "view", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.withView(w, r, nil, func(_ *viewport.Controller, g *gallery.Gallery) (any, error) {
		return g.Frame(), nil
	})
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	s.withView(w, r, &req, func(c *viewport.Controller, g *gallery.Gallery) (any, error) {
		e, err := req.event()
		if err != nil {
			return nil, err
		}
		c.HandlePointer(e)
		return g.Frame(), nil
	})
}

func (s *Server) handleWheel(w http.ResponseWriter, r *http.Request) {
	var req wheelRequest
	s.withView(w, r, &req, func(c *viewport.Controller, g *gallery.Gallery) (any, error) {
		c.HandleWheel(viewport.WheelEvent{X: req.X, Y: req.Y, DeltaY: req.DeltaY})
		return g.Frame(), nil
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	v, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := v.Resize(req.Width, req.Height); err != nil {
		writeError(w, err)
		return
	}
	var f gallery.Frame
	v.Do(func(_ *viewport.Controller, g *gallery.Gallery) { f = g.Frame() })
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	s.withView(w, r, &req, func(_ *viewport.Controller, g *gallery.Gallery) (any, error) {
		if _, ok := item.Index(g.Items())[req.Item]; !ok {
			return nil, perrors.New(perrors.ErrCodeItemNotFound, "item %q not found", req.Item)
		}
		ok := g.Activate(req.Item)
		return acceptedResponse{Accepted: ok, Frame: g.Frame()}, nil
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	s.withView(w, r, &req, func(_ *viewport.Controller, g *gallery.Gallery) (any, error) {
		ok := g.Reset(req.Token)
		return acceptedResponse{Accepted: ok, Frame: g.Frame()}, nil
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	s.withView(w, r, &req, func(_ *viewport.Controller, g *gallery.Gallery) (any, error) {
		var err error
		if req.Error != "" {
			err = errors.New(req.Error)
		}
		g.ReportLoad(req.Item, err)
		return g.Frame(), nil
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(render.FormatSVG)
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		writeError(w, err)
		return
	}
	if f == render.FormatDOT {
		writeError(w, perrors.New(perrors.ErrCodeUnsupported, "snapshots cannot be rendered as dot"))
		return
	}

	id := chi.URLParam(r, "id")
	v, err := s.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var (
		frame gallery.Frame
		key   string
	)
	v.Do(func(c *viewport.Controller, g *gallery.Gallery) {
		frame = g.Frame()
		lk := s.keyer.LayoutKey(g.Layout().Key, s.layoutOpts)
		key = cache.NewScopedKeyer(s.keyer, viewScope(id)).SnapshotKey(lk, snapshotOpts(frame, g.Items(), s.cfg.Gallery.WithDefaults(), f))
	})

	ctx := r.Context()
	if data, ok, _ := s.snaps.Get(ctx, key); ok {
		w.Header().Set("X-Cache", "hit")
		writeBytes(w, f, data)
		return
	}

	var data []byte
	switch f {
	case render.FormatSVG:
		data = render.RenderSVG(frame)
	case render.FormatPNG:
		data, err = render.RenderPNG(frame)
	case render.FormatJSON:
		data, err = render.RenderJSON(frame)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.snaps.Set(ctx, key, data, defaultSnapshotTTL); err != nil {
		s.logger.Warn("snapshot cache write failed", "err", err)
	}
	w.Header().Set("X-Cache", "miss")
	writeBytes(w, f, data)
}

// snapshotOpts captures every frame input that changes the rendered bytes.
func snapshotOpts(f gallery.Frame, items []item.Item, g gallery.Options, format render.Format) cache.SnapshotKeyOpts {
	opts := cache.SnapshotKeyOpts{
		Items:    cache.HashJSON(items),
		Options:  cache.HashJSON(g),
		CenterX:  f.Center.X,
		CenterY:  f.Center.Y,
		Zoom:     f.Zoom,
		Width:    f.Width,
		Height:   f.Height,
		DPR:      g.DevicePixelRatio,
		Selected: f.Selected,
		Format:   string(format),
	}
	for _, v := range f.Items {
		if v.Status == gallery.StatusFailed {
			opts.Failed = append(opts.Failed, v.Item.ID)
		}
	}
	return opts
}

// withView decodes the request body into req (when non-nil), runs fn under
// the view lock and writes its result as JSON. An error from fn is written
// instead of the result; fn must not mutate the view before failing.
func (s *Server) withView(w http.ResponseWriter, r *http.Request, req any, fn func(*viewport.Controller, *gallery.Gallery) (any, error)) {
	if req != nil {
		if err := decode(r, req); err != nil {
			writeError(w, err)
			return
		}
	}
	v, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var (
		out   any
		fnErr error
	)
	if err := v.Do(func(c *viewport.Controller, g *gallery.Gallery) { out, fnErr = fn(c, g) }); err != nil {
		writeError(w, err)
		return
	}
	if fnErr != nil {
		writeError(w, fnErr)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// Encoding
// =============================================================================

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBytes(w http.ResponseWriter, f render.Format, data []byte) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.Write(data)
}

type errorResponse struct {
	Code    perrors.Code `json:"code"`
	Message string       `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := perrors.GetCode(err)
	if code == "" {
		code = perrors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Code: code, Message: perrors.UserMessage(err)})
}

// statusFor maps error codes onto HTTP status codes.
func statusFor(code perrors.Code) int {
	switch {
	case perrors.IsNotFound(&perrors.Error{Code: code}):
		return http.StatusNotFound
	case code == perrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
