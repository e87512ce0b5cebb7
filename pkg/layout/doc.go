// Package layout arranges variably-sized items on an elliptical path
// without overlap.
//
// # Algorithm
//
// For n items, item i is first tried at angle 2πi/n on an ellipse with radii
// (RadiusX, RadiusY). Its candidate box is the item size plus Padding on every
// side. An R-tree holds every box accepted so far; if the candidate hits one,
// this item's radii grow by a fixed fraction of the base radii and the next
// candidate is tried:
//
//	rx(k) = RadiusX * (1 + GrowX*k)
//	ry(k) = RadiusY * (1 + GrowY*k)
//
// After MaxAttempts candidates the last one is accepted and the placement is
// marked [Placement.Overlapped] instead of failing. Callers can count these
// with [Layout.Overlaps] and decide whether to warn or pick other radii.
//
// # Usage
//
//	l := layout.Compute(items, layout.WithRadii(80, 50))
//	for i, p := range l.Placements {
//	    fmt.Println(items[i].ID, p.X, p.Y)
//	}
//
// [Compute] has no dependency on rendering and is safe to call concurrently.
package layout
