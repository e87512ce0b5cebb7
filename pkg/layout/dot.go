package layout

import (
	"fmt"
	"strings"
)

// ToDOT describes the collision history of a layout as a Graphviz digraph.
// Each placement is a node labelled with its attempt count; an edge a -> b
// means b pushed a outward. Overlapped placements are drawn red.
func ToDOT(l Layout) string {
	var b strings.Builder
	b.WriteString("digraph collisions {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, fontname=\"Helvetica\", fontsize=10];\n")

	for _, p := range l.Placements {
		attrs := fmt.Sprintf("label=%q", fmt.Sprintf("%s\n%d attempt(s)", p.ItemID, p.Attempts))
		if p.Overlapped {
			attrs += ", color=red, fontcolor=red"
		}
		fmt.Fprintf(&b, "  %q [%s];\n", p.ItemID, attrs)
	}
	for _, p := range l.Placements {
		for _, blocker := range p.Blockers {
			fmt.Fprintf(&b, "  %q -> %q;\n", p.ItemID, blocker)
		}
	}

	b.WriteString("}\n")
	return b.String()
}
