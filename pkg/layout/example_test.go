package layout_test

import (
	"fmt"
	"math"

	"github.com/matzehuels/panorama/pkg/item"
	"github.com/matzehuels/panorama/pkg/layout"
)

// round hides float noise such as -1.8e-14 in printed output.
func round(v float64) float64 {
	if math.Abs(v) < 0.5 {
		return 0
	}
	return math.Round(v)
}

func ExampleCompute() {
	// Four equal prints land on the four ends of the ellipse.
	items := []item.Item{
		{ID: "north-sea", URL: "/a.jpg", Width: 10, Height: 8},
		{ID: "harbour", URL: "/b.jpg", Width: 10, Height: 8},
		{ID: "dunes", URL: "/c.jpg", Width: 10, Height: 8},
		{ID: "lighthouse", URL: "/d.jpg", Width: 10, Height: 8},
	}

	l := layout.Compute(items)
	for _, p := range l.Placements {
		fmt.Printf("%s: (%g, %g) attempts=%d\n", p.ItemID, round(p.X), round(p.Y), p.Attempts)
	}
	fmt.Println("Overlaps:", l.Overlaps())
	// Output:
	// north-sea: (60, 0) attempts=1
	// harbour: (0, 40) attempts=1
	// dunes: (-60, 0) attempts=1
	// lighthouse: (0, -40) attempts=1
	// Overlaps: 0
}

func ExampleLayout_Overlaps() {
	// Two huge items on a fixed ellipse cannot be separated.
	items := []item.Item{
		{ID: "mural", URL: "/m.jpg", Width: 500, Height: 300},
		{ID: "banner", URL: "/b.jpg", Width: 500, Height: 300},
	}

	l := layout.Compute(items, layout.WithGrowth(0, 0), layout.WithMaxAttempts(3))
	p := l.Placements[1]
	fmt.Println("Overlapped:", p.Overlapped)
	fmt.Println("Attempts:", p.Attempts)
	fmt.Println("Blockers:", p.Blockers)
	// Output:
	// Overlapped: true
	// Attempts: 3
	// Blockers: [mural]
}
