package gallery

import (
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/layout"
	"github.com/matzehuels/panorama/pkg/observability"
	"github.com/matzehuels/panorama/pkg/resolver"
	"github.com/matzehuels/panorama/pkg/viewport"
)

// Optional viewport capabilities used when available.
type (
	resetter     interface{ Reset() }
	boundsSetter interface{ SetBounds(viewport.Rect) }
	zoomLimiter  interface{ ZoomLimits() (lo, hi float64) }
)

// Gallery composes a layout, a resolver and a viewport into render passes
// and handles item selection.
//
// Like the viewport it drives, a Gallery is confined to the host's event
// loop; none of its methods may be called concurrently.
type Gallery struct {
	vp     viewport.Viewport
	res    *resolver.Resolver
	opts   Options
	logger *log.Logger

	items  []item.Item
	index  map[string]int
	layout layout.Layout

	selected   string
	lastManual time.Time
	resetToken uint64

	current map[string]string // item ID -> URL of the last frame
	loads   map[string]load

	selectListeners []selectListener
	nextListener    int

	unsubscribe func()
	closed      bool
}

type load struct {
	url    string
	status Status
	err    error
}

type selectListener struct {
	id int
	fn func(item.Item)
}

// New creates a gallery over vp. A nil res gets a fresh resolver. A resolver
// may be shared between galleries; Close only drops this gallery's reference.
func New(vp viewport.Viewport, res *resolver.Resolver, opts Options) *Gallery {
	opts = opts.WithDefaults()
	if res == nil {
		res = resolver.New()
	}
	g := &Gallery{
		vp:      vp,
		res:     res,
		opts:    opts,
		logger:  opts.Logger,
		index:   map[string]int{},
		current: map[string]string{},
		loads:   map[string]load{},
	}
	g.unsubscribe = vp.OnMove(g.handleMove)
	return g
}

func (g *Gallery) handleMove(manual bool) {
	if !manual {
		return
	}
	g.lastManual = g.opts.Clock()
	if g.selected != "" {
		g.logger.Debug("selection cleared by gesture", "item", g.selected)
		g.selected = ""
	}
}

// SetItems replaces the item list. The layout is recomputed only when the
// ordered IDs or dimensions change. A selection whose item disappeared is
// cleared.
func (g *Gallery) SetItems(items []item.Item) error {
	if g.closed {
		return nil
	}
	if err := item.ValidateAll(items); err != nil {
		return err
	}

	if key := layout.Key(items); key != g.layout.Key {
		start := time.Now()
		g.layout = layout.Compute(items, g.opts.Layout...)
		g.logger.Debug("layout computed",
			"items", len(items), "overlaps", g.layout.Overlaps(), "took", time.Since(start))
		if n := g.layout.Overlaps(); n > 0 {
			g.logger.Warn("layout accepted overlapping placements", "count", n)
		}
		if b, ok := g.vp.(boundsSetter); ok {
			b.SetBounds(g.worldBounds())
		}
	}

	g.items = append([]item.Item(nil), items...)
	g.index = item.Index(g.items)

	if _, ok := g.index[g.selected]; g.selected != "" && !ok {
		g.selected = ""
	}
	for id := range g.loads {
		if _, ok := g.index[id]; !ok {
			delete(g.loads, id)
			delete(g.current, id)
		}
	}
	return nil
}

// worldBounds is the layout extent in world pixels, used to keep the camera
// over the arrangement.
func (g *Gallery) worldBounds() viewport.Rect {
	if len(g.layout.Placements) == 0 {
		return viewport.Rect{}
	}
	b := g.layout.Bounds()
	u := g.opts.UnitToPixel
	return viewport.Rect{
		Min: viewport.Point{X: b.Min.X * u, Y: b.Min.Y * u},
		Max: viewport.Point{X: b.Max.X * u, Y: b.Max.Y * u},
	}
}

// Items returns the current item list.
func (g *Gallery) Items() []item.Item { return g.items }

// Layout returns the current layout.
func (g *Gallery) Layout() layout.Layout { return g.layout }

// Selected returns the selected item ID, or "".
func (g *Gallery) Selected() string { return g.selected }

// Viewport returns the driven viewport.
func (g *Gallery) Viewport() viewport.Viewport { return g.vp }

// Resolver returns the gallery's resolver; nil after Close.
func (g *Gallery) Resolver() *resolver.Resolver { return g.res }

// =============================================================================
// Render pass
// =============================================================================

// Frame computes the screen transform, visibility, detail level, URL, depth
// and load status of every item for the current camera state.
func (g *Gallery) Frame() Frame {
	if g.closed {
		return Frame{}
	}
	start := time.Now()

	w, h := g.vp.Size()
	f := Frame{
		Center:   g.vp.Center(),
		Zoom:     g.vp.Zoom(),
		Width:    w,
		Height:   h,
		Selected: g.selected,
		Items:    make([]ItemView, len(g.items)),
	}
	if g.selected != "" {
		f.Panel = g.panelWidth(w)
	}

	for i, it := range g.items {
		v := g.view(it, g.layout.Placements[i], f)
		if v.Visible {
			f.Visible++
		}
		f.Items[i] = v
	}
	sort.SliceStable(f.Items, func(i, j int) bool {
		return f.Items[i].ZIndex < f.Items[j].ZIndex
	})

	observability.Gallery().OnFrame(len(f.Items), f.Visible, time.Since(start))
	return f
}

func (g *Gallery) view(it item.Item, p layout.Placement, f Frame) ItemView {
	u, z := g.opts.UnitToPixel, f.Zoom
	half := viewport.Point{X: f.Width / 2, Y: f.Height / 2}

	// Offset from the camera in screen pixels, plus the parallax term
	// (itemPosition - scaledCenter) * factor.
	rel := viewport.Point{X: p.X * u, Y: p.Y * u}.Sub(f.Center).Scale(z)
	screen := rel.Add(rel.Scale(g.opts.Parallax)).Add(half)

	sw, sh := it.Width*u*z, it.Height*u*z
	v := ItemView{
		Item:      it,
		Placement: p,
		Transform: Transform{
			Scale:      z,
			TranslateX: screen.X - sw/2,
			TranslateY: screen.Y - sh/2,
		},
		Screen: viewport.Rect{
			Min: viewport.Point{X: screen.X - sw/2, Y: screen.Y - sh/2},
			Max: viewport.Point{X: screen.X + sw/2, Y: screen.Y + sh/2},
		},
		Selected: it.ID == g.selected,
	}

	v.Visible = g.onScreen(screen, it, z, f.Width, f.Height)
	v.Level = resolver.Low
	if v.Visible {
		v.Level = resolver.ForPixelWidth(g.opts.DevicePixelRatio * z * it.Width * u)
	}

	url, err := g.res.RequestLevel(it.URL, v.Level)
	if err != nil {
		// Items are validated on SetItems, so this is a resolver bug.
		g.logger.Error("resolve image URL", "item", it.ID, "err", err)
		url = it.URL
	}
	v.URL = url
	g.current[it.ID] = url

	if l, ok := g.loads[it.ID]; ok && l.url == url {
		v.Status = l.status
		if l.err != nil {
			v.Error = l.err.Error()
		}
	}

	depth := math.Abs(p.X) + math.Abs(p.Y)
	v.Opacity = math.Max(0.7, 1-depth/100)
	v.ZIndex = int(math.Floor(depth / 10))
	return v
}

// onScreen reports whether the padded item box centered at screen touches
// the viewport grown by the overscan margin.
func (g *Gallery) onScreen(screen viewport.Point, it item.Item, z, w, h float64) bool {
	pad := g.layout.Padding
	u := g.opts.UnitToPixel
	hw := (it.Width + 2*pad) * u * z / 2
	hh := (it.Height + 2*pad) * u * z / 2
	ox, oy := w*g.opts.Overscan, h*g.opts.Overscan

	return screen.X+hw >= -ox && screen.X-hw <= w+ox &&
		screen.Y+hh >= -oy && screen.Y-hh <= h+oy
}

func (g *Gallery) panelWidth(w float64) float64 {
	if w >= g.opts.PanelBreakpoint {
		return g.opts.PanelWidth
	}
	return 0
}

// HitTest returns the topmost item under the screen point (x, y).
func (g *Gallery) HitTest(x, y float64) (string, bool) {
	f := g.Frame()
	for i := len(f.Items) - 1; i >= 0; i-- {
		if v := f.Items[i]; v.Visible && v.Contains(x, y) {
			return v.Item.ID, true
		}
	}
	return "", false
}

// =============================================================================
// Selection
// =============================================================================

// OnSelect registers fn to receive every successfully activated item.
func (g *Gallery) OnSelect(fn func(item.Item)) (unsubscribe func()) {
	g.nextListener++
	id := g.nextListener
	g.selectListeners = append(g.selectListeners, selectListener{id: id, fn: fn})
	return func() {
		for i, l := range g.selectListeners {
			if l.id == id {
				g.selectListeners = append(g.selectListeners[:i:i], g.selectListeners[i+1:]...)
				return
			}
		}
	}
}

// Activate handles a click or tap on an item. It is ignored while pinching
// and within TapDebounce of a manual camera change, since the pointer
// release of a drag is not a tap. Otherwise the camera moves to fit the
// item beside the side panel, the item becomes selected, and OnSelect
// listeners are notified. It reports whether the activation was accepted.
func (g *Gallery) Activate(id string) bool {
	if g.closed {
		return false
	}
	i, ok := g.index[id]
	if !ok {
		g.logger.Debug("activate unknown item", "item", id)
		return false
	}
	if g.vp.IsPinching() {
		g.logger.Debug("activate ignored while pinching", "item", id)
		return false
	}
	if !g.lastManual.IsZero() && g.opts.Clock().Sub(g.lastManual) < g.opts.TapDebounce {
		g.logger.Debug("activate ignored after drag", "item", id)
		return false
	}

	it, p := g.items[i], g.layout.Placements[i]
	center, zoom := g.focus(it, p)

	g.selected = id
	g.vp.MoveTo(center, zoom)

	g.logger.Info("item selected", "item", id, "zoom", zoom)
	observability.Gallery().OnSelect(id)
	for _, l := range append([]selectListener(nil), g.selectListeners...) {
		l.fn(it)
	}
	return true
}

// focus returns the camera state that fits p's padded box into the part of
// the viewport not covered by the side panel, centered in that part.
func (g *Gallery) focus(it item.Item, p layout.Placement) (viewport.Point, float64) {
	u, pad := g.opts.UnitToPixel, g.layout.Padding
	w, h := g.vp.Size()
	panel := g.panelWidth(w)

	zoom := g.vp.Zoom()
	availW := (w - panel) * (1 - g.opts.FitMargin)
	availH := h * (1 - g.opts.FitMargin)
	if availW > 0 && availH > 0 {
		zoom = math.Min(availW/((it.Width+2*pad)*u), availH/((it.Height+2*pad)*u))
	}
	// The viewport clamps the target zoom; the shift must use the same value.
	if l, ok := g.vp.(zoomLimiter); ok {
		lo, hi := l.ZoomLimits()
		zoom = math.Max(lo, math.Min(hi, zoom))
	}

	// The item should land at screen x = (w-panel)/2, i.e. panel/2 left of
	// the viewport middle; parallax scales offsets by (1+factor).
	shift := panel / 2 / (zoom * (1 + g.opts.Parallax))
	return viewport.Point{X: p.X*u + shift, Y: p.Y * u}, zoom
}

// Reset handles the host's reset signal. Tokens must increase; a token not
// larger than the last one seen is ignored. An accepted reset clears the
// selection and returns the camera to its home state.
func (g *Gallery) Reset(token uint64) bool {
	if g.closed || token <= g.resetToken {
		return false
	}
	g.resetToken = token
	g.selected = ""
	g.lastManual = time.Time{}

	if r, ok := g.vp.(resetter); ok {
		r.Reset()
	} else {
		g.vp.MoveTo(viewport.Point{}, 1)
	}
	g.logger.Debug("gallery reset", "token", token)
	return true
}

// ReportLoad records the outcome of loading an item's current image URL.
// A failure shows the item as a placeholder until its URL changes; it is
// logged and never propagated.
func (g *Gallery) ReportLoad(id string, err error) {
	if g.closed {
		return
	}
	if _, ok := g.index[id]; !ok {
		return
	}
	l := load{url: g.current[id], status: StatusLoaded, err: err}
	if err != nil {
		l.status = StatusFailed
		g.logger.Warn("image failed to load", "item", id, "url", l.url, "err", err)
		observability.Gallery().OnLoadError(id, err)
	}
	g.loads[id] = l
}

// Close detaches from the viewport, destroys it, and drops the resolver.
// Calling Close again does nothing.
func (g *Gallery) Close() {
	if g.closed {
		return
	}
	g.closed = true
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	g.vp.Destroy()
	g.res = nil
	g.selectListeners = nil
}
