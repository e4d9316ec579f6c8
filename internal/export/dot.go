package export

import (
	"fmt"
	"strings"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
)

// DOTOptions tune the rendered diagram. Without an Assignment nodes stay
// uncolored; with one, the two groups get distinct fills and crossing
// edges render dashed.
type DOTOptions struct {
	Title      string
	Assignment map[int]int
}

// ToDOT renders the graph as GraphViz DOT.
// Usage: os.WriteFile("network.dot", []byte(ToDOT(g, opts)), 0644)
func ToDOT(g *netgraph.Graph, opts DOTOptions) string {
	var b strings.Builder
	if g.Directed() {
		b.WriteString("digraph G {\n")
	} else {
		b.WriteString("graph G {\n")
	}
	b.WriteString("  node [shape=circle];\n")
	if opts.Title != "" {
		b.WriteString(fmt.Sprintf("  labelloc=\"t\"; label=%q; fontname=\"Helvetica\";\n", opts.Title))
	}

	for _, v := range g.Nodes() {
		if opts.Assignment == nil {
			b.WriteString(fmt.Sprintf("  %d;\n", v))
			continue
		}
		fill := "#eef6ff"
		if opts.Assignment[v] == 1 {
			fill = "#fff3cd"
		}
		b.WriteString(fmt.Sprintf("  %d [style=\"filled\", fillcolor=%q];\n", v, fill))
	}

	arrow := " -- "
	if g.Directed() {
		arrow = " -> "
	}
	for _, e := range g.Edges() {
		attrs := ""
		if opts.Assignment != nil && (opts.Assignment[e.U] == 1) != (opts.Assignment[e.V] == 1) {
			attrs = " [style=dashed, color=\"#d9534f\"]"
		}
		b.WriteString(fmt.Sprintf("  %d%s%d%s;\n", e.U, arrow, e.V, attrs))
	}
	b.WriteString("}\n")
	return b.String()
}
