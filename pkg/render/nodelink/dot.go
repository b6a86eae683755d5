package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/render"
)

// pointsPerInch converts scene pixels to Graphviz inches.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Detailed adds the node id under the label when they differ.
	Detailed bool
	// HideLabels leaves the circles empty.
	HideLabels bool
}

// ToDOT converts a scene to Graphviz DOT with every positioned node pinned.
func ToDOT(s render.Scene, opts Options) string {
	pinned := make(map[string]bool, len(s.Nodes))

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=curved;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", orDefault(s.Background, "transparent"))
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fixedsize=true, fontsize=%.1f, fontcolor=%q];\n",
		orFloat(s.FontSize, 11), orDefault(s.LabelColor, "black"))
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		if !n.HasPos {
			continue
		}
		pinned[n.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, s.Height, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		if !pinned[e.Source] || !pinned[e.Target] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n render.NodeElement, height float64, opts Options) []string {
	label := ""
	if !opts.HideLabels {
		label = n.Label
		if opts.Detailed && n.Label != n.ID {
			label += "\n" + n.ID
		}
	}
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("pos=\"%.2f,%.2f!\"", n.X, height-n.Y),
		fmt.Sprintf("width=%.4f", 2*n.Radius/pointsPerInch),
		fmt.Sprintf("fillcolor=%q", withAlpha(n.Fill, n.Opacity)),
	}
	if n.Stroke != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", withAlpha(n.Stroke, n.Opacity)))
	}
	if n.Highlighted {
		attrs = append(attrs, "penwidth=3")
	}
	return attrs
}

func edgeAttrs(e render.EdgeElement) []string {
	color := withAlpha(e.Color, e.Opacity)
	if e.Gradient != nil {
		// Graphviz splits a color list along the edge.
		color = withAlpha(e.Gradient.From, e.Opacity) + ":" + withAlpha(e.Gradient.To, e.Opacity)
	}
	return []string{
		fmt.Sprintf("id=%q", e.ID),
		fmt.Sprintf("color=%q", color),
		fmt.Sprintf("penwidth=%.2f", math.Max(e.Width, 0.5)),
	}
}

// withAlpha appends an alpha byte to a #rrggbb color.
func withAlpha(hex string, opacity float64) string {
	if len(hex) != 7 || hex[0] != '#' || opacity >= 1 {
		return hex
	}
	a := int(math.Round(math.Max(0, opacity) * 255))
	return fmt.Sprintf("%s%02x", hex, a)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// The root element is rewritten to pixel units.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// pixel-sized one so browsers and rsvg scale it the same way.
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
