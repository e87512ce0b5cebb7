package viewport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler delivers animation frames, in the manner of a browser's
// requestAnimationFrame. Callbacks must run on the controller's goroutine.
type Scheduler interface {
	// RequestFrame schedules fn for the next frame. Calling the returned
	// function before the frame runs drops the request.
	RequestFrame(fn func(now time.Time)) (cancel func())
}

// DefaultFrameInterval is the frame spacing used by the provided
// schedulers (60 Hz).
const DefaultFrameInterval = time.Second / 60

// =============================================================================
// Manual Scheduler
// =============================================================================

// ManualScheduler runs frames only when stepped. It is used by tests and
// offline rendering, where time is simulated. It is not safe for concurrent
// use.
type ManualScheduler struct {
	now      time.Time
	interval time.Duration
	pending  []*frameRequest
}

type frameRequest struct {
	fn        func(time.Time)
	cancelled bool
}

// NewManualScheduler creates a scheduler whose clock starts at start and
// advances by interval on each Step. A zero interval selects
// DefaultFrameInterval.
func NewManualScheduler(start time.Time, interval time.Duration) *ManualScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &ManualScheduler{now: start, interval: interval}
}

// RequestFrame implements Scheduler.
func (s *ManualScheduler) RequestFrame(fn func(time.Time)) func() {
	r := &frameRequest{fn: fn}
	s.pending = append(s.pending, r)
	return func() {
		r.cancelled = true
		for i, p := range s.pending {
			if p == r {
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				return
			}
		}
	}
}

// Now returns the simulated clock.
func (s *ManualScheduler) Now() time.Time { return s.now }

// Pending returns the number of queued frame requests.
func (s *ManualScheduler) Pending() int { return len(s.pending) }

// Step advances the clock by one interval and runs the callbacks queued
// before the step. Callbacks queued while stepping wait for the next step.
// It reports whether any callback ran.
func (s *ManualScheduler) Step() bool {
	s.now = s.now.Add(s.interval)
	batch := s.pending
	s.pending = nil
	ran := false
	for _, r := range batch {
		if !r.cancelled {
			r.fn(s.now)
			ran = true
		}
	}
	return ran
}

// Run steps until no frames are pending or max steps have run, and returns
// the number of steps taken.
func (s *ManualScheduler) Run(max int) int {
	n := 0
	for n < max && len(s.pending) > 0 {
		s.Step()
		n++
	}
	return n
}

// =============================================================================
// Ticker Scheduler
// =============================================================================

// TickerScheduler delivers frames from a wall-clock ticker. Because frames
// must run on the controller's goroutine (or under the lock that serializes
// it), each batch is handed to exec, which typically acquires that lock.
//
// TickerScheduler is safe for concurrent use. Frames are only delivered
// while Run is active.
type TickerScheduler struct {
	interval time.Duration
	exec     func(func())

	mu      sync.Mutex
	pending []*tickerRequest
}

type tickerRequest struct {
	fn        func(time.Time)
	cancelled atomic.Bool
}

// NewTickerScheduler creates a scheduler ticking every interval. exec runs
// each batch of callbacks; nil runs them directly on the ticker goroutine.
func NewTickerScheduler(interval time.Duration, exec func(func())) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if exec == nil {
		exec = func(f func()) { f() }
	}
	return &TickerScheduler{interval: interval, exec: exec}
}

// RequestFrame implements Scheduler.
func (s *TickerScheduler) RequestFrame(fn func(time.Time)) func() {
	r := &tickerRequest{fn: fn}
	s.mu.Lock()
	s.pending = append(s.pending, r)
	s.mu.Unlock()
	return func() { r.cancelled.Store(true) }
}

// Pending returns the number of queued frame requests.
func (s *TickerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run delivers frames until ctx is done.
func (s *TickerScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.mu.Lock()
			batch := s.pending
			s.pending = nil
			s.mu.Unlock()
			if len(batch) == 0 {
				continue
			}
			s.exec(func() {
				for _, r := range batch {
					if !r.cancelled.Load() {
						r.fn(now)
					}
				}
			})
		}
	}
}
