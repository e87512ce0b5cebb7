// Package viewport implements the camera of the canvas: a pan center and a
// zoom factor, driven by pointer, touch and wheel input and by eased
// programmatic transitions.
//
// # Coordinates
//
// The camera center is given in world pixels, i.e. layout units scaled to
// pixels at zoom 1. A world point p appears on screen at
//
//	screen = (p - center) * zoom + size/2
//
// # Gestures
//
// A [Controller] is always in exactly one [Mode]:
//
//	Idle      -> Panning    pointer down and dragged past the dead zone
//	Idle      -> Pinching   second touch down
//	Idle      -> Animating  MoveTo
//	Animating -> Idle       transition completes, or a pointer goes down
//	Panning   -> Idle       last pointer up
//	Pinching  -> Panning    one of two touches lifted
//
// User gestures always win: a pointer going down mid-animation settles the
// [Transition] as incomplete, and MoveTo during a pan or pinch is dropped.
//
// # Frames
//
// Animations advance through a [Scheduler]. [ManualScheduler] steps a
// simulated clock for tests and offline rendering; [TickerScheduler] runs
// on wall-clock time and hands each batch of frames to a caller-supplied
// executor so they run under the host's lock.
package viewport
