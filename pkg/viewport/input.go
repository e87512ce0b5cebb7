package viewport

// PointerKind is the phase of a pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerCancel
)

// PointerEvent is a mouse, pen or touch event in screen pixels relative to
// the element's top-left corner. ID distinguishes simultaneous touches.
type PointerEvent struct {
	ID    int
	Kind  PointerKind
	X, Y  float64
	Touch bool
}

// Pos returns the event position.
func (e PointerEvent) Pos() Point { return Point{e.X, e.Y} }

// WheelEvent is a scroll-wheel or trackpad zoom event. Negative DeltaY zooms
// in, following browser conventions.
type WheelEvent struct {
	X, Y   float64
	DeltaY float64
}

// InputHandler consumes raw input delivered by an [Element].
type InputHandler interface {
	HandlePointer(PointerEvent)
	HandleWheel(WheelEvent)
}

// Element is the on-screen surface a controller is bound to.
type Element interface {
	// Size returns the element's size in screen pixels.
	Size() (w, h float64)

	// Listen starts delivering input to h and returns a function that
	// stops delivery.
	Listen(h InputHandler) (detach func())
}

// StaticElement is an Element of fixed size that never produces input on
// its own. Hosts that already own an event loop (terminals, HTTP sessions,
// offline renderers) feed events straight into the controller.
type StaticElement struct {
	W, H float64
}

// Size implements Element.
func (e *StaticElement) Size() (float64, float64) { return e.W, e.H }

// Listen implements Element.
func (e *StaticElement) Listen(InputHandler) func() { return func() {} }

// Mode is the gesture state of a controller. Exactly one mode is active.
type Mode int

const (
	Idle Mode = iota
	Panning
	Pinching
	Animating
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case Pinching:
		return "pinching"
	case Animating:
		return "animating"
	}
	return "unknown"
}
