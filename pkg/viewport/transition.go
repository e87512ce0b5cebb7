package viewport

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Transition tracks one MoveTo request. It settles exactly once: when the
// camera reaches the target, or earlier when the request is superseded by
// another MoveTo, interrupted by a manual gesture, or the controller is
// destroyed.
type Transition struct {
	done      chan struct{}
	once      sync.Once
	completed atomic.Bool
}

func newTransition() *Transition {
	return &Transition{done: make(chan struct{})}
}

// settledTransition returns a transition that has already settled without
// reaching its target.
func settledTransition() *Transition {
	t := newTransition()
	t.settle(false)
	return t
}

// Done is closed once the transition settles.
func (t *Transition) Done() <-chan struct{} { return t.done }

// Completed reports whether the camera reached the requested target. It is
// false until Done is closed.
func (t *Transition) Completed() bool { return t.completed.Load() }

// Settled reports whether Done has been closed.
func (t *Transition) Settled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Transition) settle(completed bool) {
	t.once.Do(func() {
		t.completed.Store(completed)
		close(t.done)
	})
}

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

// EaseOutCubic decelerates towards the target.
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// Linear applies no easing.
func Linear(t float64) float64 { return t }

// animation is the in-flight state behind a Transition.
type animation struct {
	from, to         Point
	fromZoom, toZoom float64
	start            time.Time
	requested        time.Time
	cancelFrame      func()
	transition       *Transition
}

// progress returns linear progress at now. The first frame fixes the start
// time so that scheduling latency is not counted.
func (a *animation) progress(now time.Time, d time.Duration) float64 {
	if a.start.IsZero() {
		a.start = now
	}
	if d <= 0 {
		return 1
	}
	return clamp(float64(now.Sub(a.start))/float64(d), 0, 1)
}
