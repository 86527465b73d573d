package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/strata/pkg/graph"
)

// GenerateMermaid produces a Mermaid flowchart of the dependencies discovered
// so far. Edges point from an input to the node that read it.
// Shapes follow the node flags:
// - Stored: [(Cylinder)]
// - Settable: [/Parallelogram/]
// - Overlayable: ([Stadium])
// - Read-only: [Rectangle]
// When store is not nil, nodes are styled by their state as seen from it:
// fixed, valid, or stale (never computed or invalidated).
func GenerateMermaid(nodes []*graph.Node, store *graph.DataStore) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, n := range nodes {
		opener, closer := "[", "]"
		switch {
		case n.Descriptor().Stored():
			opener, closer = "[(", ")]"
		case n.Descriptor().Settable():
			opener, closer = "[/", "/]"
		case n.Descriptor().Overlayable():
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", mermaidID(n.ID()), opener, escapeLabel(n.String()), closer)
	}

	for _, n := range nodes {
		for _, in := range n.Inputs() {
			fmt.Fprintf(&sb, "    %s --> %s\n", mermaidID(in), mermaidID(n.ID()))
		}
	}

	if store != nil {
		sb.WriteString("\n    %% State in " + escapeLabel(store.Name()) + "\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef fixed fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		sb.WriteString("    classDef valid fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef stale fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#000;\n")
		for _, n := range nodes {
			fmt.Fprintf(&sb, "    class %s %s;\n", mermaidID(n.ID()), state(store.Lookup(n, true)))
		}
	}

	return sb.String()
}

func state(d *graph.NodeData) string {
	switch {
	case d == nil:
		return "stale"
	case d.Fixed():
		return "fixed"
	case d.Valid():
		return "valid"
	default:
		return "stale"
	}
}

func mermaidID(id graph.NodeID) string {
	return fmt.Sprintf("n%d", id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
