package resolver

import "fmt"

// Level is an image detail tier. Levels are ordered: Low < Medium < Full.
type Level int

const (
	Low Level = iota
	Medium
	Full
)

// Pixel widths requested for each level.
const (
	LowWidth    = 400
	MediumWidth = 800
	FullWidth   = 4000
)

// Levels lists every level in ascending order.
var Levels = []Level{Low, Medium, Full}

// Width returns the pixel width requested for the level.
func (l Level) Width() int {
	switch l {
	case Medium:
		return MediumWidth
	case Full:
		return FullWidth
	default:
		return LowWidth
	}
}

func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case Full:
		return "full"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// ForPixelWidth picks the level for an item occupying px physical pixels on
// screen: Low below 400, Medium below 800, Full otherwise. The mapping is
// non-decreasing in px.
func ForPixelWidth(px float64) Level {
	switch {
	case px < LowWidth:
		return Low
	case px < MediumWidth:
		return Medium
	default:
		return Full
	}
}
