package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// BoundingBox is an axis-aligned rectangle in layout units.
type BoundingBox struct {
	r2.Box
}

// BoxAround returns the box of size w×h centered on c, grown by pad on
// every side.
func BoxAround(c r2.Vec, w, h, pad float64) BoundingBox {
	half := r2.Scale(0.5, r2.Vec{X: w + 2*pad, Y: h + 2*pad})
	return BoundingBox{r2.Box{Min: r2.Sub(c, half), Max: r2.Add(c, half)}}
}

// Width returns the horizontal extent.
func (b BoundingBox) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent.
func (b BoundingBox) Height() float64 { return b.Max.Y - b.Min.Y }

// Center returns the midpoint of the box.
func (b BoundingBox) Center() r2.Vec { return r2.Scale(0.5, r2.Add(b.Min, b.Max)) }

// Intersects reports whether the interiors of b and o overlap.
// Boxes that only share an edge do not intersect.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Min.X < o.Max.X && o.Min.X < b.Max.X &&
		b.Min.Y < o.Max.Y && o.Min.Y < b.Max.Y
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{r2.Box{
		Min: r2.Vec{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y)},
		Max: r2.Vec{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y)},
	}}
}

func (b BoundingBox) corners() (lo, hi [2]float64) {
	return [2]float64{b.Min.X, b.Min.Y}, [2]float64{b.Max.X, b.Max.Y}
}
