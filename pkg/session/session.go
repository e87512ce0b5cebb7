// Package session keeps interactive views alive between requests.
//
// A [View] is one client's camera and gallery: a viewport.Controller over a
// fixed-size element, a gallery.Gallery on top of it, and a ticker that
// drives MoveTo animations. Every access goes through [View.Do], which
// holds the view's lock, so the controller's single-goroutine contract holds
// even though HTTP handlers and the ticker run concurrently.
//
// A [Store] indexes views by ID and expires the ones that have been idle
// longer than its TTL:
//
//	store := session.NewStore(session.DefaultTTL)
//	v, err := session.NewView(ctx, cfg, res, items)
//	store.Set(v)
//	...
//	store.Cleanup() // destroys idle views
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/resolver"
	"github.com/matzehuels/panorama/pkg/viewport"
)

// DefaultTTL is how long a view may sit idle before Cleanup destroys it.
const DefaultTTL = 30 * time.Minute

// Config describes the views a server hands out.
type Config struct {
	Width, Height float64
	Gallery       gallery.Options
	Viewport      []viewport.Option

	// FrameInterval is the animation tick; zero selects 60 Hz.
	FrameInterval time.Duration
}

// View is one live camera and gallery.
type View struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	el       *viewport.StaticElement
	ctrl     *viewport.Controller
	gallery  *gallery.Gallery
	cancel   context.CancelFunc
	lastSeen time.Time
	closed   bool
}

// NewView builds a view over items and starts its animation ticker. The
// ticker stops when ctx is done or the view is closed.
func NewView(ctx context.Context, cfg Config, res *resolver.Resolver, items []item.Item) (*View, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "view size must be positive, got %vx%v", cfg.Width, cfg.Height)
	}

	v := &View{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		lastSeen:  time.Now(),
		el:        &viewport.StaticElement{W: cfg.Width, H: cfg.Height},
	}
	sched := viewport.NewTickerScheduler(cfg.FrameInterval, func(f func()) {
		v.mu.Lock()
		defer v.mu.Unlock()
		if !v.closed {
			f()
		}
	})

	opts := append([]viewport.Option{viewport.WithScheduler(sched)}, cfg.Viewport...)
	v.ctrl = viewport.New(v.el, opts...)
	v.gallery = gallery.New(v.ctrl, res, cfg.Gallery)
	if err := v.gallery.SetItems(items); err != nil {
		v.ctrl.Destroy()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	go sched.Run(runCtx)
	return v, nil
}

// Do runs fn with exclusive access to the view's controller and gallery.
func (v *View) Do(fn func(*viewport.Controller, *gallery.Gallery)) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return errors.New(errors.ErrCodeViewNotFound, "view %s is closed", v.ID)
	}
	v.lastSeen = time.Now()
	fn(v.ctrl, v.gallery)
	return nil
}

// Resize changes the element size seen by the controller.
func (v *View) Resize(w, h float64) error {
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "view size must be positive, got %vx%v", w, h)
	}
	return v.Do(func(*viewport.Controller, *gallery.Gallery) {
		v.el.W, v.el.H = w, h
	})
}

// Idle returns how long ago the view was last used.
func (v *View) Idle(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastSeen)
}

// Close stops the ticker and destroys the controller. It is safe to call
// more than once.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.cancel()
	v.gallery.Close()
	v.ctrl.Destroy()
}

// Store indexes live views by ID.
type Store struct {
	mu    sync.RWMutex
	views map[string]*View
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a store whose views expire after ttl of inactivity. A
// ttl <= 0 disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{views: make(map[string]*View), ttl: ttl, now: time.Now}
}

// Set adds v to the store.
func (s *Store) Set(v *View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[v.ID] = v
}

// Get returns the view with id. An unknown or expired ID yields
// VIEW_NOT_FOUND; expired views are closed on the way out.
func (s *Store) Get(id string) (*View, error) {
	s.mu.RLock()
	v, ok := s.views[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %q not found", id)
	}
	if s.expired(v) {
		s.Delete(id)
		return nil, errors.New(errors.ErrCodeViewNotFound, "view %q expired", id)
	}
	return v, nil
}

// Delete closes and removes a view. Deleting a missing view is not an
// error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	v, ok := s.views[id]
	delete(s.views, id)
	s.mu.Unlock()
	if ok {
		v.Close()
	}
}

// Range calls fn for every live view until fn returns false.
func (s *Store) Range(fn func(*View) bool) {
	s.mu.RLock()
	views := make([]*View, 0, len(s.views))
	for _, v := range s.views {
		views = append(views, v)
	}
	s.mu.RUnlock()
	for _, v := range views {
		if !fn(v) {
			return
		}
	}
}

// Cleanup closes and removes idle views, returning their IDs.
func (s *Store) Cleanup() []string {
	var expired []string
	s.Range(func(v *View) bool {
		if s.expired(v) {
			expired = append(expired, v.ID)
		}
		return true
	})
	for _, id := range expired {
		s.Delete(id)
	}
	return expired
}

// Len returns the number of views.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// Close closes every view.
func (s *Store) Close() {
	s.mu.Lock()
	views := s.views
	s.views = make(map[string]*View)
	s.mu.Unlock()
	for _, v := range views {
		v.Close()
	}
}

func (s *Store) expired(v *View) bool {
	return s.ttl > 0 && v.Idle(s.now()) > s.ttl
}
