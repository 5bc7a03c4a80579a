package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pcegraph/pkg/graph"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds resources to node labels and impairments or bandwidth
	// to link labels. When false, only ids are shown.
	Detailed bool

	// ClusterDevices groups nodes of the same device into a cluster.
	ClusterDevices bool
}

var nodeShapes = map[topology.NodeType]string{
	topology.NodeTypeXponder: "box",
	topology.NodeTypeSRG:     "trapezium",
	topology.NodeTypeDegree:  "ellipse",
	topology.NodeTypeMuxpdr:  "box",
	topology.NodeTypeTpdr:    "box",
	topology.NodeTypeSwitch:  "hexagon",
}

var linkStyles = map[topology.LinkType]string{
	topology.LinkAdd:           "dashed",
	topology.LinkDrop:          "dashed",
	topology.LinkExpress:       "dotted",
	topology.LinkXponderInput:  "solid",
	topology.LinkXponderOutput: "solid",
	topology.LinkRoadmToRoadm:  "bold",
	topology.LinkOTN:           "bold",
}

// ToDOT converts a graph to Graphviz DOT source. The A and Z ends are
// filled; everything else is white.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph PCE {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	fmt.Fprintf(&buf, "  label=%q;\n", "service "+string(g.ServiceType()))
	buf.WriteString("\n")

	aEnd, zEnd := g.AEnd().ID, g.ZEnd().ID
	writeNode := func(indent string, n graph.Node) {
		attrs := []string{
			fmt.Sprintf("label=%q", nodeLabel(n, opts.Detailed)),
			"shape=" + shape(n.Type),
		}
		if n.ID == aEnd || n.ID == zEnd {
			attrs = append(attrs, "fillcolor=lightblue")
		}
		fmt.Fprintf(&buf, "%s%q [%s];\n", indent, n.ID, strings.Join(attrs, ", "))
	}

	if opts.ClusterDevices {
		byDevice := make(map[string][]graph.Node)
		for _, n := range g.Nodes() {
			byDevice[n.DeviceID] = append(byDevice[n.DeviceID], n)
		}
		devices := make([]string, 0, len(byDevice))
		for d := range byDevice {
			devices = append(devices, d)
		}
		slices.Sort(devices)
		for i, d := range devices {
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
			fmt.Fprintf(&buf, "    label=%q;\n", d)
			buf.WriteString("    style=rounded;\n")
			for _, n := range byDevice[d] {
				writeNode("    ", n)
			}
			buf.WriteString("  }\n")
		}
	} else {
		for _, n := range g.Nodes() {
			writeNode("  ", n)
		}
	}

	buf.WriteString("\n")
	for _, l := range g.Links() {
		attrs := []string{"style=" + style(l.Type)}
		if label := linkLabel(l, opts.Detailed); label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", label))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", l.Source.Node, l.Dest.Node, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func shape(t topology.NodeType) string {
	if s, ok := nodeShapes[t]; ok {
		return s
	}
	return "box"
}

func style(t topology.LinkType) string {
	if s, ok := linkStyles[t]; ok {
		return s
	}
	return "solid"
}

func nodeLabel(n graph.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	parts := []string{n.ID, string(n.Type)}
	if r, ok := n.OpticalResources(); ok {
		parts = append(parts, fmt.Sprintf("λ: %d", len(r.Wavelengths)))
		if len(r.AvailablePPs) > 0 {
			parts = append(parts, fmt.Sprintf("PPs: %d", len(r.AvailablePPs)))
		}
	}
	if r, ok := n.OTNResources(); ok {
		parts = append(parts, fmt.Sprintf("net: %d client: %d", len(r.NetworkTPs), len(r.ClientTPs)))
		if r.Transit {
			parts = append(parts, "transit")
		}
	}
	return strings.Join(parts, "\n")
}

func linkLabel(l graph.Link, detailed bool) string {
	if !detailed {
		return ""
	}
	if m, ok := l.Impairments(); ok {
		label := fmt.Sprintf("%.1f km", m.LengthKm)
		if len(m.SRLGs) > 0 {
			ids := make([]string, len(m.SRLGs))
			for i, s := range m.SRLGs {
				ids[i] = strconv.FormatUint(uint64(s), 10)
			}
			label += "\nsrlg " + strings.Join(ids, ",")
		}
		return label
	}
	if b, ok := l.Bandwidth(); ok {
		return fmt.Sprintf("%d/%d Mb/s", b.Available, b.Available+b.Used)
	}
	return ""
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
