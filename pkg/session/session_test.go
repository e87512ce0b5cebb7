package session

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/viewport"
)

var testItems = []item.Item{
	{ID: "a", URL: "/a.jpg", Width: 10, Height: 10},
	{ID: "b", URL: "/b.jpg", Width: 12, Height: 8},
}

func newTestView(t *testing.T) *View {
	t.Helper()
	v, err := NewView(context.Background(), Config{Width: 800, Height: 600, FrameInterval: time.Millisecond}, nil, testItems)
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}
	t.Cleanup(v.Close)
	return v
}

func TestNewViewValidates(t *testing.T) {
	_, err := NewView(context.Background(), Config{}, nil, testItems)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero size: err = %v", err)
	}
	_, err = NewView(context.Background(), Config{Width: 10, Height: 10}, nil,
		[]item.Item{{ID: "x", URL: "ftp://nope", Width: 1, Height: 1}})
	if !errors.Is(err, errors.ErrCodeInvalidItem) {
		t.Errorf("bad item: err = %v", err)
	}
}

func TestViewAnimatesOnTicker(t *testing.T) {
	v := newTestView(t)

	var tr *viewport.Transition
	v.Do(func(c *viewport.Controller, _ *gallery.Gallery) {
		tr = c.MoveTo(viewport.Point{X: 100, Y: 50}, 2)
	})

	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("transition never settled")
	}
	if !tr.Completed() {
		t.Fatal("transition should complete")
	}
	v.Do(func(c *viewport.Controller, _ *gallery.Gallery) {
		if c.Zoom() != 2 {
			t.Errorf("zoom = %v, want 2", c.Zoom())
		}
	})
}

func TestViewResize(t *testing.T) {
	v := newTestView(t)
	if err := v.Resize(1200, 900); err != nil {
		t.Fatal(err)
	}
	v.Do(func(c *viewport.Controller, _ *gallery.Gallery) {
		if w, h := c.Size(); w != 1200 || h != 900 {
			t.Errorf("size = %vx%v", w, h)
		}
	})
	if err := v.Resize(0, 10); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestViewClose(t *testing.T) {
	v := newTestView(t)
	v.Close()
	v.Close()
	if err := v.Do(func(*viewport.Controller, *gallery.Gallery) {}); !errors.Is(err, errors.ErrCodeViewNotFound) {
		t.Errorf("Do after Close: err = %v", err)
	}
}

func TestStore(t *testing.T) {
	s := NewStore(time.Minute)
	v := newTestView(t)
	s.Set(v)

	got, err := s.Get(v.ID)
	if err != nil || got != v {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d", s.Len())
	}

	s.Delete(v.ID)
	s.Delete(v.ID)
	if _, err := s.Get(v.ID); !errors.IsNotFound(err) {
		t.Errorf("Get after Delete: err = %v", err)
	}
}

func TestStoreCleanup(t *testing.T) {
	s := NewStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	idle, fresh := newTestView(t), newTestView(t)
	s.Set(idle)
	s.Set(fresh)

	now = now.Add(2 * time.Minute)
	fresh.mu.Lock()
	fresh.lastSeen = now
	fresh.mu.Unlock()

	expired := s.Cleanup()
	if len(expired) != 1 || expired[0] != idle.ID {
		t.Fatalf("Cleanup = %v, want [%s]", expired, idle.ID)
	}
	if _, err := s.Get(fresh.ID); err != nil {
		t.Errorf("fresh view: %v", err)
	}
	if err := idle.Do(func(*viewport.Controller, *gallery.Gallery) {}); err == nil {
		t.Error("expired view should be closed")
	}
}

func TestStoreClose(t *testing.T) {
	s := NewStore(0)
	s.Set(newTestView(t))
	s.Set(newTestView(t))
	s.Close()
	if s.Len() != 0 {
		t.Errorf("Len = %d after Close", s.Len())
	}
}
