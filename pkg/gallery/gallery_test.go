package gallery

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	perrors "github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/layout"
	"github.com/matzehuels/panorama/pkg/resolver"
	"github.com/matzehuels/panorama/pkg/viewport"
)

// fakeViewport is a Viewport whose state the test sets directly.
type fakeViewport struct {
	center    viewport.Point
	zoom      float64
	w, h      float64
	pinching  bool
	listeners []func(bool)
	moves     []move
	destroyed int
}

type move struct {
	center viewport.Point
	zoom   float64
}

func newFakeViewport(w, h float64) *fakeViewport {
	return &fakeViewport{zoom: 1, w: w, h: h}
}

func (v *fakeViewport) Center() viewport.Point   { return v.center }
func (v *fakeViewport) Zoom() float64            { return v.zoom }
func (v *fakeViewport) Size() (float64, float64) { return v.w, v.h }
func (v *fakeViewport) IsPinching() bool         { return v.pinching }
func (v *fakeViewport) Destroy()                 { v.destroyed++ }

func (v *fakeViewport) MoveTo(c viewport.Point, z float64) *viewport.Transition {
	v.moves = append(v.moves, move{c, z})
	v.center, v.zoom = c, z
	v.notify(false)
	return nil
}

func (v *fakeViewport) OnMove(fn func(bool)) func() {
	i := len(v.listeners)
	v.listeners = append(v.listeners, fn)
	return func() { v.listeners[i] = nil }
}

func (v *fakeViewport) notify(manual bool) {
	for _, fn := range v.listeners {
		if fn != nil {
			fn(manual)
		}
	}
}

// drag simulates a manual camera change.
func (v *fakeViewport) drag(to viewport.Point) {
	v.center = to
	v.notify(true)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGallery(t *testing.T, vp viewport.Viewport, items []item.Item, opts Options) (*Gallery, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	opts.Clock = clock.Now
	g := New(vp, resolver.New(), opts)
	if err := g.SetItems(items); err != nil {
		t.Fatalf("SetItems() error: %v", err)
	}
	return g, clock
}

func testItem(id string, w, h float64) item.Item {
	return item.Item{ID: id, URL: "https://cdn.example.com/" + id + ".jpg", Width: w, Height: h, Alt: id}
}

func mustFind(t *testing.T, f Frame, id string) ItemView {
	t.Helper()
	v, ok := f.Find(id)
	if !ok {
		t.Fatalf("item %s missing from frame", id)
	}
	return v
}

func TestFrameLevelOnAndOffScreen(t *testing.T) {
	// 90 units at 10 px/unit is 900px wide at zoom 1.
	vp := newFakeViewport(1000, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("wide", 90, 60)}, Options{})

	p := g.Layout().Placements[0]
	vp.center = viewport.Point{X: p.X * 10, Y: p.Y * 10}

	v := mustFind(t, g.Frame(), "wide")
	if !v.Visible || v.Level != resolver.Full {
		t.Errorf("centered item: visible=%v level=%v, want visible full", v.Visible, v.Level)
	}
	if !strings.HasSuffix(v.URL, "?width=4000") {
		t.Errorf("URL = %q", v.URL)
	}

	vp.center.X += 5000
	v = mustFind(t, g.Frame(), "wide")
	if v.Visible || v.Level != resolver.Low {
		t.Errorf("off-screen item: visible=%v level=%v, want hidden low", v.Visible, v.Level)
	}
	if !strings.HasSuffix(v.URL, "?width=400") {
		t.Errorf("URL = %q", v.URL)
	}
}

func TestFrameOverscan(t *testing.T) {
	vp := newFakeViewport(1000, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("a", 10, 10)}, Options{DisableParallax: true})

	// The item sits at world x=600; its padded box is 140px wide. With the
	// camera at 1270 the box's right edge is at -100, inside the 150px
	// overscan; at 1370 it is at -200, outside.
	tests := []struct {
		centerX float64
		visible bool
	}{
		{1270, true},
		{1370, false},
	}
	for _, tt := range tests {
		vp.center = viewport.Point{X: tt.centerX}
		v := mustFind(t, g.Frame(), "a")
		if v.Visible != tt.visible {
			t.Errorf("center %v: Visible = %v, want %v", tt.centerX, v.Visible, tt.visible)
		}
	}
}

func TestFrameDetailMonotonicInZoom(t *testing.T) {
	vp := newFakeViewport(1000, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("a", 30, 20)}, Options{})
	p := g.Layout().Placements[0]
	vp.center = viewport.Point{X: p.X * 10, Y: p.Y * 10}

	prev := resolver.Low
	seen := map[resolver.Level]bool{}
	for z := 0.1; z <= 15; z *= 1.1 {
		vp.zoom = z
		lvl := mustFind(t, g.Frame(), "a").Level
		if lvl < prev {
			t.Fatalf("level regressed at zoom %.3f: %v after %v", z, lvl, prev)
		}
		prev = lvl
		seen[lvl] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected to pass through all levels, saw %v", seen)
	}
}

func TestFrameDevicePixelRatio(t *testing.T) {
	vp := newFakeViewport(1000, 800)
	// 30 units is 300px: Low at DPR 1, Medium at DPR 2.
	items := []item.Item{testItem("a", 30, 20)}

	g1, _ := newTestGallery(t, vp, items, Options{})
	p := g1.Layout().Placements[0]
	vp.center = viewport.Point{X: p.X * 10, Y: p.Y * 10}
	if lvl := mustFind(t, g1.Frame(), "a").Level; lvl != resolver.Low {
		t.Errorf("DPR 1: level = %v, want low", lvl)
	}

	g2, _ := newTestGallery(t, vp, items, Options{DevicePixelRatio: 2})
	if lvl := mustFind(t, g2.Frame(), "a").Level; lvl != resolver.Medium {
		t.Errorf("DPR 2: level = %v, want medium", lvl)
	}
}

func TestFrameDepthOrdering(t *testing.T) {
	items := []item.Item{
		testItem("east", 2, 2),
		testItem("south", 2, 2),
		testItem("west", 2, 2),
		testItem("north", 2, 2),
	}
	vp := newFakeViewport(1000, 800)
	g, _ := newTestGallery(t, vp, items, Options{Layout: []layout.Option{layout.WithRadii(20, 5)}})

	f := g.Frame()
	var order []string
	for _, v := range f.Items {
		order = append(order, v.Item.ID)
	}
	want := []string{"south", "north", "east", "west"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("paint order = %v, want %v", order, want)
	}

	east := mustFind(t, f, "east")
	if math.Abs(east.Opacity-0.8) > 1e-9 || east.ZIndex != 2 {
		t.Errorf("east: opacity=%v z=%d, want 0.8 and 2", east.Opacity, east.ZIndex)
	}
	south := mustFind(t, f, "south")
	if math.Abs(south.Opacity-0.95) > 1e-9 || south.ZIndex != 0 {
		t.Errorf("south: opacity=%v z=%d, want 0.95 and 0", south.Opacity, south.ZIndex)
	}
}

func TestFrameOpacityFloor(t *testing.T) {
	vp := newFakeViewport(1000, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("far", 5, 5)}, Options{})
	// Default radius 60 gives depth 60 and an unclamped opacity of 0.4.
	if v := mustFind(t, g.Frame(), "far"); v.Opacity != 0.7 || v.ZIndex != 6 {
		t.Errorf("opacity=%v z=%d, want 0.7 and 6", v.Opacity, v.ZIndex)
	}
}

func TestFrameParallax(t *testing.T) {
	vp := newFakeViewport(1000, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("a", 10, 10)}, Options{Parallax: 0.1})

	// Item at world (600, 0), camera at origin, zoom 2: offset 1200px,
	// parallax adds 10% of it.
	vp.zoom = 2
	v := mustFind(t, g.Frame(), "a")
	cx := (v.Screen.Min.X + v.Screen.Max.X) / 2
	if math.Abs(cx-(500+1200*1.1)) > 1e-9 {
		t.Errorf("screen center x = %v, want %v", cx, 500+1200*1.1)
	}
	if v.Transform.Scale != 2 || v.Transform.TranslateX != v.Screen.Min.X {
		t.Errorf("Transform = %+v", v.Transform)
	}
	if w := v.Screen.Max.X - v.Screen.Min.X; math.Abs(w-200) > 1e-9 {
		t.Errorf("screen width = %v, want 200", w)
	}
}

func TestActivateFitsBesidePanel(t *testing.T) {
	vp := newFakeViewport(1200, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("a", 20, 10)}, Options{})

	var got []item.Item
	g.OnSelect(func(it item.Item) { got = append(got, it) })

	if !g.Activate("a") {
		t.Fatal("Activate() = false")
	}
	if g.Selected() != "a" || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("selected=%q notified=%v", g.Selected(), got)
	}
	if len(vp.moves) != 1 {
		t.Fatalf("MoveTo called %d times", len(vp.moves))
	}

	// Padded box 240x140px; free area 800x800 less 10% margin.
	m := vp.moves[0]
	if math.Abs(m.zoom-3) > 1e-9 {
		t.Errorf("zoom = %v, want 3", m.zoom)
	}
	p := g.Layout().Placements[0]
	wantX := p.X*10 + 200/(3*1.05)
	if math.Abs(m.center.X-wantX) > 1e-9 || math.Abs(m.center.Y-p.Y*10) > 1e-9 {
		t.Errorf("center = %v, want (%v, %v)", m.center, wantX, p.Y*10)
	}

	f := g.Frame()
	v := mustFind(t, f, "a")
	if cx := (v.Screen.Min.X + v.Screen.Max.X) / 2; math.Abs(cx-400) > 1e-6 {
		t.Errorf("item screen center x = %v, want 400 (middle of the free area)", cx)
	}
	if !v.Selected || f.Panel != DefaultPanelWidth || f.Selected != "a" {
		t.Errorf("frame selection: selected=%v panel=%v", v.Selected, f.Panel)
	}
}

func TestActivateNarrowViewportHasNoPanel(t *testing.T) {
	vp := newFakeViewport(800, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("a", 20, 10)}, Options{})

	g.Activate("a")
	p := g.Layout().Placements[0]
	m := vp.moves[0]
	if math.Abs(m.zoom-3) > 1e-9 || math.Abs(m.center.X-p.X*10) > 1e-9 {
		t.Errorf("move = %+v, want zoom 3 centered on item", m)
	}
	if f := g.Frame(); f.Panel != 0 {
		t.Errorf("Panel = %v, want 0", f.Panel)
	}
}

func TestActivateRejected(t *testing.T) {
	vp := newFakeViewport(1200, 800)
	g, clock := newTestGallery(t, vp, []item.Item{testItem("a", 20, 10)}, Options{})

	if g.Activate("missing") {
		t.Error("unknown item accepted")
	}

	vp.pinching = true
	if g.Activate("a") {
		t.Error("activation during pinch accepted")
	}
	vp.pinching = false

	vp.drag(viewport.Point{X: 10})
	clock.Advance(100 * time.Millisecond)
	if g.Activate("a") {
		t.Error("activation right after a drag accepted")
	}

	clock.Advance(200 * time.Millisecond)
	if !g.Activate("a") {
		t.Error("activation after the debounce window rejected")
	}
}

func TestManualGestureClearsSelection(t *testing.T) {
	vp := newFakeViewport(1200, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("a", 20, 10)}, Options{})

	g.Activate("a")
	if g.Selected() != "a" {
		t.Fatal("not selected")
	}
	vp.notify(false)
	if g.Selected() != "a" {
		t.Fatal("programmatic motion cleared the selection")
	}
	vp.drag(viewport.Point{X: 1})
	if g.Selected() != "" {
		t.Error("manual gesture did not clear the selection")
	}
}

func TestReset(t *testing.T) {
	vp := newFakeViewport(1200, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("a", 20, 10)}, Options{})
	g.Activate("a")

	tests := []struct {
		token uint64
		want  bool
	}{
		{0, false},
		{1, true},
		{1, false},
		{3, true},
		{2, false},
	}
	for _, tt := range tests {
		if got := g.Reset(tt.token); got != tt.want {
			t.Errorf("Reset(%d) = %v, want %v", tt.token, got, tt.want)
		}
	}
	if g.Selected() != "" {
		t.Error("Reset did not clear the selection")
	}
	last := vp.moves[len(vp.moves)-1]
	if last.center != (viewport.Point{}) || last.zoom != 1 {
		t.Errorf("reset move = %+v, want origin at zoom 1", last)
	}
}

func TestReportLoad(t *testing.T) {
	vp := newFakeViewport(1000, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("a", 30, 20), testItem("b", 30, 20)}, Options{})

	f := g.Frame()
	if v := mustFind(t, f, "a"); v.Status != StatusLoading {
		t.Fatalf("initial status = %v", v.Status)
	}

	g.ReportLoad("a", errors.New("404 Not Found"))
	g.ReportLoad("b", nil)
	g.ReportLoad("unknown", errors.New("ignored"))

	f = g.Frame()
	a := mustFind(t, f, "a")
	if a.Status != StatusFailed || a.Error != "404 Not Found" {
		t.Errorf("a: status=%v error=%q", a.Status, a.Error)
	}
	if b := mustFind(t, f, "b"); b.Status != StatusLoaded {
		t.Errorf("b: status=%v", b.Status)
	}

	// A new detail level means a new URL, which gets a fresh attempt.
	p := g.Layout().Placements[0]
	vp.center = viewport.Point{X: p.X * 10, Y: p.Y * 10}
	vp.zoom = 4
	a = mustFind(t, g.Frame(), "a")
	if a.Level == resolver.Low || a.Status != StatusLoading {
		t.Errorf("after zoom: level=%v status=%v", a.Level, a.Status)
	}
}

func TestSetItems(t *testing.T) {
	vp := newFakeViewport(1000, 800)
	items := []item.Item{testItem("a", 10, 10), testItem("b", 10, 10)}
	g, _ := newTestGallery(t, vp, items, Options{})
	key := g.Layout().Key
	first := &g.Layout().Placements[0]

	captioned := append([]item.Item(nil), items...)
	captioned[0].Caption = "changed"
	if err := g.SetItems(captioned); err != nil {
		t.Fatal(err)
	}
	if &g.Layout().Placements[0] != first {
		t.Error("caption change recomputed the layout")
	}
	if g.Items()[0].Caption != "changed" {
		t.Error("items not replaced")
	}

	g.Activate("b")
	if err := g.SetItems(items[:1]); err != nil {
		t.Fatal(err)
	}
	if g.Layout().Key == key {
		t.Error("removing an item kept the old layout")
	}
	if g.Selected() != "" {
		t.Error("selection of a removed item survived")
	}

	err := g.SetItems([]item.Item{{ID: "bad", URL: "/x.jpg", Width: -1, Height: 1}})
	if !perrors.Is(err, perrors.ErrCodeInvalidItem) {
		t.Errorf("SetItems(invalid) error = %v", err)
	}
	if len(g.Items()) != 1 {
		t.Error("invalid list replaced the items")
	}
}

func TestClose(t *testing.T) {
	vp := newFakeViewport(1000, 800)
	g, _ := newTestGallery(t, vp, []item.Item{testItem("a", 10, 10)}, Options{})

	g.Close()
	g.Close()

	if vp.destroyed != 1 {
		t.Errorf("viewport destroyed %d times, want 1", vp.destroyed)
	}
	if g.Resolver() != nil {
		t.Error("resolver kept after Close")
	}
	if f := g.Frame(); len(f.Items) != 0 {
		t.Error("Frame after Close returned items")
	}
	if g.Activate("a") {
		t.Error("Activate after Close accepted")
	}
	vp.drag(viewport.Point{X: 3})
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.WithDefaults()
	if o.UnitToPixel != DefaultUnitToPixel || o.Parallax != DefaultParallax ||
		o.Overscan != DefaultOverscan || o.TapDebounce != DefaultTapDebounce {
		t.Errorf("defaults not applied: %+v", o)
	}
	if o.Logger == nil || o.Clock == nil {
		t.Error("Logger and Clock should be set")
	}

	o = Options{Parallax: 0.2, DisableParallax: true, FitMargin: 0.3}.WithDefaults()
	if o.Parallax != 0 || o.FitMargin != 0.3 {
		t.Errorf("Parallax=%v FitMargin=%v", o.Parallax, o.FitMargin)
	}
}
