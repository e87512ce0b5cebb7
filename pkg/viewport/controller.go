package viewport

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/panorama/pkg/observability"
)

// Defaults for [New].
const (
	DefaultMinZoom   = 0.1
	DefaultMaxZoom   = 10.0
	DefaultDuration  = 500 * time.Millisecond
	DefaultDeadZone  = 4.0 // screen pixels a pointer travels before a drag starts
	DefaultWheelStep = 1.1 // zoom factor per 100 units of wheel delta
)

// Viewport is the camera surface the gallery drives. [Controller] is the
// standard implementation.
type Viewport interface {
	// Center returns the camera center in world pixels.
	Center() Point

	// Zoom returns the camera scale; 1 means 100%.
	Zoom() float64

	// Size returns the viewport size in screen pixels.
	Size() (w, h float64)

	// MoveTo starts an eased transition to center and zoom, replacing any
	// transition in flight.
	MoveTo(center Point, zoom float64) *Transition

	// OnMove registers fn for every camera change. manual is true for
	// changes caused by a user gesture.
	OnMove(fn func(manual bool)) (unsubscribe func())

	IsPinching() bool

	// Destroy detaches input and drops all listeners. Calling it again
	// does nothing.
	Destroy()
}

var (
	_ Viewport     = (*Controller)(nil)
	_ InputHandler = (*Controller)(nil)
)

// Controller owns the camera state for one element and turns pointer, touch
// and wheel input into camera motion.
//
// A Controller is confined to a single goroutine: input handlers, frame
// callbacks and the public methods must all be called from the host's event
// loop, or under one lock. Listeners run synchronously in the order the
// state changes.
type Controller struct {
	el     Element
	detach func()
	sched  Scheduler
	logger *log.Logger

	center   Point
	zoom     float64
	home     Point
	homeZoom float64
	minZoom  float64
	maxZoom  float64
	bounds   Rect

	duration      time.Duration
	easing        Easing
	deadZone      float64
	wheelStep     float64
	onManualStart func()

	mode      Mode
	pointers  map[int]*pointer
	downOrder []int
	pinch     [2]int
	pinchDist float64
	pinchMid  Point
	anim      *animation

	listeners    []listener
	nextListener int
	destroyed    bool
}

type pointer struct {
	pos, start Point
	touch      bool
}

type listener struct {
	id int
	fn func(manual bool)
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler sets the frame source for MoveTo animations. Without one,
// transitions jump to their target in a single step.
func WithScheduler(s Scheduler) Option { return func(c *Controller) { c.sched = s } }

// WithZoomLimits sets the zoom clamp range.
func WithZoomLimits(lo, hi float64) Option {
	return func(c *Controller) {
		if lo > 0 && hi >= lo {
			c.minZoom, c.maxZoom = lo, hi
		}
	}
}

// WithBounds restricts the camera center to r. An empty rect disables the
// restriction.
func WithBounds(r Rect) Option { return func(c *Controller) { c.bounds = r } }

// WithHome sets the initial camera state, also used by Reset.
func WithHome(center Point, zoom float64) Option {
	return func(c *Controller) { c.home, c.homeZoom = center, zoom }
}

// WithDuration sets the MoveTo transition length.
func WithDuration(d time.Duration) Option { return func(c *Controller) { c.duration = d } }

// WithEasing sets the MoveTo easing curve.
func WithEasing(e Easing) Option {
	return func(c *Controller) {
		if e != nil {
			c.easing = e
		}
	}
}

// WithDeadZone sets how far a pointer must travel before a drag pans.
func WithDeadZone(px float64) Option { return func(c *Controller) { c.deadZone = px } }

// WithWheelStep sets the zoom factor applied per 100 units of wheel delta.
func WithWheelStep(f float64) Option {
	return func(c *Controller) {
		if f > 1 {
			c.wheelStep = f
		}
	}
}

// WithOnManualStart registers a hook that runs whenever a user gesture
// takes over the camera, e.g. to drop keyboard focus in the host.
func WithOnManualStart(fn func()) Option { return func(c *Controller) { c.onManualStart = fn } }

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option { return func(c *Controller) { c.logger = l } }

// New creates a controller bound to el. A nil el yields a controller that
// receives no input but still supports MoveTo and listeners; hosts that
// render before their surface exists get an inert camera instead of a
// crash.
func New(el Element, opts ...Option) *Controller {
	c := &Controller{
		el:        el,
		zoom:      1,
		homeZoom:  1,
		minZoom:   DefaultMinZoom,
		maxZoom:   DefaultMaxZoom,
		duration:  DefaultDuration,
		easing:    EaseOutCubic,
		deadZone:  DefaultDeadZone,
		wheelStep: DefaultWheelStep,
		pointers:  make(map[int]*pointer),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	c.zoom = c.clampZoom(c.homeZoom)
	c.center = c.clampCenter(c.home)

	if el != nil {
		c.detach = el.Listen(c)
	}
	return c
}

// =============================================================================
// State
// =============================================================================

// Center implements Viewport.
func (c *Controller) Center() Point { return c.center }

// Zoom implements Viewport.
func (c *Controller) Zoom() float64 { return c.zoom }

// ZoomLimits returns the zoom range MoveTo and gestures clamp to.
func (c *Controller) ZoomLimits() (lo, hi float64) { return c.minZoom, c.maxZoom }

// Size implements Viewport. An inert controller has zero size.
func (c *Controller) Size() (float64, float64) {
	if c.el == nil {
		return 0, 0
	}
	return c.el.Size()
}

// Mode returns the current gesture mode.
func (c *Controller) Mode() Mode { return c.mode }

// IsPinching implements Viewport.
func (c *Controller) IsPinching() bool { return c.mode == Pinching }

// Destroyed reports whether Destroy has been called.
func (c *Controller) Destroyed() bool { return c.destroyed }

// ScreenToWorld converts a screen position to world pixels.
func (c *Controller) ScreenToWorld(p Point) Point {
	return p.Sub(c.half()).Scale(1 / c.zoom).Add(c.center)
}

// WorldToScreen converts world pixels to a screen position.
func (c *Controller) WorldToScreen(p Point) Point {
	return p.Sub(c.center).Scale(c.zoom).Add(c.half())
}

func (c *Controller) half() Point {
	w, h := c.Size()
	return Point{w / 2, h / 2}
}

// SetBounds replaces the center restriction and clamps the current center.
func (c *Controller) SetBounds(r Rect) {
	if c.destroyed {
		return
	}
	c.bounds = r
	if clamped := c.clampCenter(c.center); clamped != c.center {
		c.center = clamped
		c.notify(false)
	}
}

// Reset jumps back to the home center and zoom without animating. Any
// transition in flight settles incomplete and pointer state is dropped.
func (c *Controller) Reset() {
	if c.destroyed {
		return
	}
	c.cancelAnimation()
	c.pointers = make(map[int]*pointer)
	c.downOrder = nil
	c.setMode(Idle)
	c.center = c.clampCenter(c.home)
	c.zoom = c.clampZoom(c.homeZoom)
	c.notify(false)
}

// OnMove implements Viewport.
func (c *Controller) OnMove(fn func(manual bool)) func() {
	if c.destroyed || fn == nil {
		return func() {}
	}
	c.nextListener++
	id := c.nextListener
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Destroy implements Viewport.
func (c *Controller) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.detach != nil {
		c.detach()
		c.detach = nil
	}
	c.cancelAnimation()
	c.listeners = nil
	c.pointers = nil
	c.downOrder = nil
	c.mode = Idle
}

// =============================================================================
// Programmatic motion
// =============================================================================

// MoveTo implements Viewport. Targets are clamped. A MoveTo issued during a
// pan or pinch is dropped because the user's gesture wins; the returned
// transition is then already settled.
func (c *Controller) MoveTo(center Point, zoom float64) *Transition {
	if c.destroyed {
		return settledTransition()
	}
	if c.mode == Panning || c.mode == Pinching {
		c.logger.Debug("moveTo ignored during gesture", "mode", c.mode)
		return settledTransition()
	}
	c.cancelAnimation()

	to, toZoom := c.clampCenter(center), c.clampZoom(zoom)
	tr := newTransition()
	observability.Viewport().OnTransitionStart(to.X, to.Y, toZoom)

	if c.sched == nil {
		c.center, c.zoom = to, toZoom
		c.notify(false)
		tr.settle(true)
		observability.Viewport().OnTransitionEnd(true, 0)
		return tr
	}

	a := &animation{
		from:       c.center,
		to:         to,
		fromZoom:   c.zoom,
		toZoom:     toZoom,
		requested:  time.Now(),
		transition: tr,
	}
	c.anim = a
	c.setMode(Animating)
	a.cancelFrame = c.sched.RequestFrame(c.frame)
	return tr
}

func (c *Controller) frame(now time.Time) {
	a := c.anim
	if a == nil || c.destroyed {
		return
	}

	t := a.progress(now, c.duration)
	e := c.easing(t)
	next := Point{lerp(a.from.X, a.to.X, e), lerp(a.from.Y, a.to.Y, e)}
	nextZoom := a.fromZoom * math.Pow(a.toZoom/a.fromZoom, e)
	if t >= 1 {
		next, nextZoom = a.to, a.toZoom
	}
	changed := next != c.center || nextZoom != c.zoom
	c.center, c.zoom = next, nextZoom

	if t >= 1 {
		c.anim = nil
		c.setMode(Idle)
		if changed {
			c.notify(false)
		}
		a.transition.settle(true)
		observability.Viewport().OnTransitionEnd(true, time.Since(a.requested))
		return
	}

	a.cancelFrame = c.sched.RequestFrame(c.frame)
	if changed {
		c.notify(false)
	}
}

// cancelAnimation settles the transition in flight, if any, as incomplete.
// The caller chooses the next mode.
func (c *Controller) cancelAnimation() {
	a := c.anim
	if a == nil {
		return
	}
	c.anim = nil
	if a.cancelFrame != nil {
		a.cancelFrame()
	}
	if c.mode == Animating {
		c.setMode(Idle)
	}
	a.transition.settle(false)
	observability.Viewport().OnTransitionEnd(false, time.Since(a.requested))
}

// =============================================================================
// Manual motion
// =============================================================================

// HandlePointer implements InputHandler.
func (c *Controller) HandlePointer(e PointerEvent) {
	if c.destroyed {
		return
	}
	switch e.Kind {
	case PointerDown:
		c.pointerDown(e)
	case PointerMove:
		c.pointerMove(e)
	case PointerUp, PointerCancel:
		c.pointerUp(e)
	}
}

func (c *Controller) pointerDown(e PointerEvent) {
	if _, ok := c.pointers[e.ID]; ok {
		return
	}
	if !e.Touch && len(c.pointers) > 0 {
		return
	}
	// A new touch interrupts the camera right away, even before it
	// becomes a drag.
	c.cancelAnimation()

	c.pointers[e.ID] = &pointer{pos: e.Pos(), start: e.Pos(), touch: e.Touch}
	c.downOrder = append(c.downOrder, e.ID)

	if e.Touch && len(c.pointers) == 2 {
		c.beginPinch()
	}
}

func (c *Controller) pointerMove(e PointerEvent) {
	p, ok := c.pointers[e.ID]
	if !ok {
		return
	}
	prev := p.pos
	p.pos = e.Pos()

	switch c.mode {
	case Pinching:
		if e.ID == c.pinch[0] || e.ID == c.pinch[1] {
			c.updatePinch()
		}
	case Panning:
		c.pan(p.pos.Sub(prev))
	default:
		if len(c.pointers) == 1 && p.pos.Dist(p.start) > c.deadZone {
			c.beginManual(Panning)
			c.pan(p.pos.Sub(p.start))
		}
	}
}

func (c *Controller) pointerUp(e PointerEvent) {
	if _, ok := c.pointers[e.ID]; !ok {
		return
	}
	delete(c.pointers, e.ID)
	for i, id := range c.downOrder {
		if id == e.ID {
			c.downOrder = append(c.downOrder[:i:i], c.downOrder[i+1:]...)
			break
		}
	}

	switch c.mode {
	case Pinching:
		switch len(c.pointers) {
		case 0:
			c.setMode(Idle)
		case 1:
			// Keep dragging with the remaining finger from where it is.
			rest := c.pointers[c.downOrder[0]]
			rest.start = rest.pos
			c.setMode(Panning)
		default:
			c.beginPinch()
		}
	case Panning:
		if len(c.pointers) == 0 {
			c.setMode(Idle)
		}
	}
}

func (c *Controller) beginManual(m Mode) {
	c.cancelAnimation()
	if c.mode != Panning && c.mode != Pinching && c.onManualStart != nil {
		c.onManualStart()
	}
	c.setMode(m)
}

func (c *Controller) beginPinch() {
	c.pinch = [2]int{c.downOrder[0], c.downOrder[1]}
	a, b := c.pointers[c.pinch[0]].pos, c.pointers[c.pinch[1]].pos
	c.pinchDist = a.Dist(b)
	c.pinchMid = a.Mid(b)
	c.beginManual(Pinching)
}

func (c *Controller) updatePinch() {
	a, b := c.pointers[c.pinch[0]].pos, c.pointers[c.pinch[1]].pos
	dist, mid := a.Dist(b), a.Mid(b)

	anchor := c.ScreenToWorld(c.pinchMid)
	if c.pinchDist > 0 && dist > 0 {
		c.zoom = c.clampZoom(c.zoom * dist / c.pinchDist)
	}
	c.center = c.clampCenter(anchor.Sub(mid.Sub(c.half()).Scale(1 / c.zoom)))
	c.pinchDist, c.pinchMid = dist, mid
	c.notify(true)
}

func (c *Controller) pan(delta Point) {
	if delta == (Point{}) {
		return
	}
	c.center = c.clampCenter(c.center.Sub(delta.Scale(1 / c.zoom)))
	c.notify(true)
}

// HandleWheel implements InputHandler. The world point under the cursor
// stays fixed while zooming.
func (c *Controller) HandleWheel(e WheelEvent) {
	if c.destroyed || e.DeltaY == 0 || c.mode == Pinching {
		return
	}
	if c.mode != Panning {
		c.beginManual(Idle)
	}

	at := Point{e.X, e.Y}
	anchor := c.ScreenToWorld(at)
	c.zoom = c.clampZoom(c.zoom * math.Pow(c.wheelStep, -e.DeltaY/100))
	c.center = c.clampCenter(anchor.Sub(at.Sub(c.half()).Scale(1 / c.zoom)))
	c.notify(true)
}

// =============================================================================
// Helpers
// =============================================================================

func (c *Controller) setMode(m Mode) {
	if m == c.mode {
		return
	}
	c.logger.Debug("viewport mode", "from", c.mode, "to", m)
	observability.Viewport().OnModeChange(c.mode.String(), m.String())
	c.mode = m
}

func (c *Controller) notify(manual bool) {
	ls := append([]listener(nil), c.listeners...)
	for _, l := range ls {
		l.fn(manual)
	}
}

func (c *Controller) clampZoom(z float64) float64 {
	if math.IsNaN(z) || z <= 0 {
		return c.minZoom
	}
	return clamp(z, c.minZoom, c.maxZoom)
}

func (c *Controller) clampCenter(p Point) Point {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		p = c.center
	}
	if c.bounds.Empty() {
		return p
	}
	return c.bounds.Clamp(p)
}
