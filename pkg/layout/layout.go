package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/rtree"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/observability"
)

// Defaults for the elliptical arrangement, in layout units.
const (
	DefaultRadiusX     = 60.0
	DefaultRadiusY     = 40.0
	DefaultPadding     = 2.0
	DefaultGrowX       = 0.10
	DefaultGrowY       = 0.08
	DefaultMaxAttempts = 50
)

// Placement is the accepted center position of one item.
type Placement struct {
	ItemID string  `json:"item_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`

	// Attempts is the number of candidate positions tried, at least 1.
	Attempts int `json:"attempts"`

	// Overlapped is set when every attempt collided and the last
	// candidate was accepted anyway.
	Overlapped bool `json:"overlapped,omitempty"`

	// Blockers lists the earlier items that pushed this one outward,
	// in the order they were first hit.
	Blockers []string `json:"blockers,omitempty"`
}

// Center returns the placement position as a vector.
func (p Placement) Center() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Box returns the placement's bounding box grown by pad.
func (p Placement) Box(pad float64) BoundingBox {
	return BoxAround(p.Center(), p.Width, p.Height, pad)
}

// Layout is the result of [Compute]. Placements[i] corresponds to the i-th
// input item.
type Layout struct {
	Placements []Placement `json:"placements"`
	RadiusX    float64     `json:"radius_x"`
	RadiusY    float64     `json:"radius_y"`
	Padding    float64     `json:"padding"`
	Key        string      `json:"key"`
}

// Option configures [Compute].
type Option func(*config)

type config struct {
	radiusX, radiusY float64
	padding          float64
	growX, growY     float64
	maxAttempts      int
}

// WithRadii sets the base horizontal and vertical ellipse radii.
func WithRadii(rx, ry float64) Option {
	return func(c *config) { c.radiusX, c.radiusY = rx, ry }
}

// WithPadding sets the collision margin added on every side of an item.
func WithPadding(p float64) Option { return func(c *config) { c.padding = p } }

// WithGrowth sets the per-attempt radius increments as fractions of the
// base radii.
func WithGrowth(gx, gy float64) Option {
	return func(c *config) { c.growX, c.growY = gx, gy }
}

// WithMaxAttempts bounds the number of candidates tried per item.
func WithMaxAttempts(n int) Option { return func(c *config) { c.maxAttempts = n } }

func newConfig(opts ...Option) config {
	c := config{
		radiusX:     DefaultRadiusX,
		radiusY:     DefaultRadiusY,
		padding:     DefaultPadding,
		growX:       DefaultGrowX,
		growY:       DefaultGrowY,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

// Compute places items at equal angular steps around an ellipse centered on
// the origin.
//
// Each candidate box is tested against all previously accepted boxes; on a
// collision only this item's radii grow and the next candidate is tried. After
// the attempt bound the last candidate is kept and flagged Overlapped. Earlier
// items are never moved, so input order is bias order. The result is
// deterministic for a given input order.
func Compute(items []item.Item, opts ...Option) Layout {
	start := time.Now()
	observability.Layout().OnLayoutStart(len(items))

	cfg := newConfig(opts...)
	out := Layout{
		Placements: make([]Placement, len(items)),
		RadiusX:    cfg.radiusX,
		RadiusY:    cfg.radiusY,
		Padding:    cfg.padding,
		Key:        Key(items),
	}
	if len(items) == 0 {
		observability.Layout().OnLayoutComplete(0, 0, time.Since(start))
		return out
	}

	var index rtree.RTreeG[int]
	step := 2 * math.Pi / float64(len(items))

	for i, it := range items {
		angle := step * float64(i)
		p := Placement{ItemID: it.ID, Width: it.Width, Height: it.Height, Angle: angle}

		var box BoundingBox
		for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
			rx := cfg.radiusX * (1 + cfg.growX*float64(attempt))
			ry := cfg.radiusY * (1 + cfg.growY*float64(attempt))
			p.X, p.Y = rx*math.Cos(angle), ry*math.Sin(angle)
			p.Attempts = attempt + 1

			box = p.Box(cfg.padding)
			hits := collisions(&index, box, out.Placements, cfg.padding)
			if len(hits) == 0 {
				p.Overlapped = false
				break
			}
			for _, j := range hits {
				p.Blockers = appendUnique(p.Blockers, out.Placements[j].ItemID)
			}
			p.Overlapped = true
		}

		out.Placements[i] = p
		lo, hi := box.corners()
		index.Insert(lo, hi, i)
	}

	observability.Layout().OnLayoutComplete(len(items), out.Overlaps(), time.Since(start))
	return out
}

// collisions returns the indices of accepted placements whose padded boxes
// intersect box. The R-tree search also reports edge contact, which is
// filtered out here.
func collisions(index *rtree.RTreeG[int], box BoundingBox, placed []Placement, pad float64) []int {
	var hits []int
	lo, hi := box.corners()
	index.Search(lo, hi, func(_, _ [2]float64, j int) bool {
		if placed[j].Box(pad).Intersects(box) {
			hits = append(hits, j)
		}
		return true
	})
	return hits
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// Key identifies an ordered item set for relayout purposes. Two lists with
// the same IDs and dimensions in the same order share a key; captions and
// URLs do not affect placement and are ignored.
func Key(items []item.Item) string {
	h := sha256.New()
	for _, it := range items {
		fmt.Fprintf(h, "%s\x00%g\x00%g\x00", it.ID, it.Width, it.Height)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Bounds returns the union of all padded placement boxes. The zero box is
// returned for an empty layout.
func (l Layout) Bounds() BoundingBox {
	if len(l.Placements) == 0 {
		return BoundingBox{}
	}
	b := l.Placements[0].Box(l.Padding)
	for _, p := range l.Placements[1:] {
		b = b.Union(p.Box(l.Padding))
	}
	return b
}

// Overlaps returns the number of placements that exhausted their attempts.
func (l Layout) Overlaps() int {
	n := 0
	for _, p := range l.Placements {
		if p.Overlapped {
			n++
		}
	}
	return n
}

// Find returns the placement for an item ID.
func (l Layout) Find(id string) (Placement, bool) {
	for _, p := range l.Placements {
		if p.ItemID == id {
			return p, true
		}
	}
	return Placement{}, false
}
