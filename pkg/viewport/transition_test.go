package viewport

import (
	"math"
	"testing"
)

func TestTransitionSettlesOnce(t *testing.T) {
	tr := newTransition()
	if tr.Settled() || tr.Completed() {
		t.Fatal("new transition should be pending")
	}
	tr.settle(true)
	tr.settle(false)
	if !tr.Settled() || !tr.Completed() {
		t.Error("first settle should win")
	}

	if s := settledTransition(); !s.Settled() || s.Completed() {
		t.Error("settledTransition() should be settled and incomplete")
	}
}

func TestEasing(t *testing.T) {
	for _, tt := range []struct {
		name string
		fn   Easing
	}{
		{"ease-out-cubic", EaseOutCubic},
		{"linear", Linear},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if tt.fn(0) != 0 || math.Abs(tt.fn(1)-1) > eps {
				t.Errorf("endpoints: f(0)=%v f(1)=%v", tt.fn(0), tt.fn(1))
			}
			prev := 0.0
			for x := 0.0; x <= 1; x += 0.01 {
				y := tt.fn(x)
				if y < prev {
					t.Fatalf("not monotonic at %v", x)
				}
				prev = y
			}
		})
	}
}
