package engine

import (
	"fmt"
	"strings"
)

// shape maps a node kind to its Graphviz shape. Vertices are circles,
// configurables are rectangles, applications are diamonds.
func (k NodeKind) shape() string {
	switch k {
	case NodeVertex:
		return "circle"
	case NodeApp:
		return "diamond"
	default:
		return "box"
	}
}

// DOT renders the graph in Graphviz dot format. Nodes appear in arena
// order and edges in insertion order, so the same graph always renders
// to the same bytes. Argument edges are bold solid lines from the
// consuming node to each argument; data-dependency edges are dashed.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [fontname=\"sans-serif\"];\n")
	b.WriteString("\n")

	for _, n := range g.nodes {
		fmt.Fprintf(&b, "  n%d [label=%q, shape=%s];\n", n.id, n.label, n.kind.shape())
	}
	b.WriteString("\n")

	for _, n := range g.nodes {
		if n.kind == NodeApp {
			fmt.Fprintf(&b, "  n%d -> n%d [style=\"bold,solid\"];\n", n.id, n.base)
		}
		for _, arg := range n.args {
			fmt.Fprintf(&b, "  n%d -> n%d [style=\"bold,solid\"];\n", n.id, arg)
		}
		for _, dep := range n.dataDeps {
			fmt.Fprintf(&b, "  n%d -> n%d [style=dashed];\n", n.id, dep)
		}
	}

	b.WriteString("}\n")
	return b.String()
}
