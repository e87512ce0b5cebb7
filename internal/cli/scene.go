package cli

import (
	"time"

	"github.com/matzehuels/panorama/pkg/errors"
	"github.com/matzehuels/panorama/pkg/gallery"
	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/viewport"
)

// maxSettleFrames bounds how many frames settle runs; at 60 Hz this is far
// longer than any transition.
const maxSettleFrames = 600

// scene is a controller and gallery driven by a manual frame clock. The
// offline renderer and the terminal view both step it from their own loop.
type scene struct {
	el      viewport.Element
	sched   *viewport.ManualScheduler
	ctrl    *viewport.Controller
	gallery *gallery.Gallery
}

func newScene(cfg Config, items []item.Item, el viewport.Element) (*scene, error) {
	sched := viewport.NewManualScheduler(time.Now(), viewport.DefaultFrameInterval)
	opts := append(cfg.ViewportOptions(), viewport.WithScheduler(sched), viewport.WithLogger(cfg.Gallery.Logger))
	ctrl := viewport.New(el, opts...)
	g := gallery.New(ctrl, nil, cfg.GalleryOptions())
	if err := g.SetItems(items); err != nil {
		g.Close()
		return nil, err
	}
	return &scene{el: el, sched: sched, ctrl: ctrl, gallery: g}, nil
}

// settle runs frames until no transition is pending.
func (s *scene) settle() {
	s.sched.Run(maxSettleFrames)
}

// look moves the camera to center and zoom and waits for it to arrive.
func (s *scene) look(center viewport.Point, zoom float64) {
	s.ctrl.MoveTo(center, zoom)
	s.settle()
}

// focus activates id and waits for the camera.
func (s *scene) focus(id string) error {
	if !s.gallery.Activate(id) {
		return errors.New(errors.ErrCodeItemNotFound, "item %q not found", id)
	}
	s.settle()
	return nil
}

// fail marks the current image of each id as failed to load.
func (s *scene) fail(ids []string, reason error) error {
	s.gallery.Frame() // pins the current URLs
	idx := item.Index(s.gallery.Items())
	for _, id := range ids {
		if _, ok := idx[id]; !ok {
			return errors.New(errors.ErrCodeItemNotFound, "item %q not found", id)
		}
		s.gallery.ReportLoad(id, reason)
	}
	return nil
}

func (s *scene) close() { s.gallery.Close() }
