// Package dot renders a built graph as a Graphviz diagram.
//
// # Usage
//
// Convert a graph to DOT source, then render it to SVG:
//
//	src := dot.ToDOT(g, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Node shapes follow the node type (boxes for xponders, trapezia for SRGs,
// ellipses for degrees, hexagons for OTN switches) and the A and Z ends are
// highlighted. Add/drop links are dashed and express links dotted.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is required.
package dot
