package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/reqsolve/pkg/resolve"
)

// ToDOT converts a resolved set's provenance into Graphviz DOT format.
// Each pinned requirement is a node labelled with its version; edges
// run from the requirement that introduced a dependency to the
// dependency itself. User-supplied roots are filled to stand out.
func ToDOT(set *resolve.ResolvedSet) string {
	var buf bytes.Buffer
	buf.WriteString("digraph resolved {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for _, e := range set.All() {
		label := fmt.Sprintf("%s\n%s", e.Requirement.Name, e.Version.String())
		attrs := fmt.Sprintf("label=%q", label)
		if e.CameFrom == "" {
			attrs += ", fillcolor=lightblue"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", e.Requirement.Name, attrs)
	}

	buf.WriteString("\n")
	for _, e := range set.All() {
		if e.CameFrom == "" {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.CameFrom, e.Requirement.Name)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
