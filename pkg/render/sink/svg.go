package sink

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/flowgraph/pkg/render"
)

// RenderSVG draws the scene as an SVG document: a background rect, then the
// edge layer, then the node layer, inside the pan/zoom transform.
func RenderSVG(s render.Scene, opts ...Option) []byte {
	var buf bytes.Buffer
	WriteSVG(&buf, s, opts...)
	return buf.Bytes()
}

// WriteSVG is RenderSVG writing to w.
func WriteSVG(w io.Writer, s render.Scene, opts ...Option) {
	o := newOptions(opts)
	t := o.transform(s)
	width, height := int(math.Ceil(s.Width)), int(math.Ceil(s.Height))

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, `class="background"`, fmt.Sprintf("fill:%s", s.Background))

	if gradients := collectGradients(s.Edges); len(gradients) > 0 {
		canvas.Def()
		for _, g := range gradients {
			x1, y1, x2, y2 := gradientBox(g)
			canvas.LinearGradient(g.ID, x1, y1, x2, y2, []svg.Offcolor{
				{Offset: 0, Color: g.From, Opacity: 1},
				{Offset: 100, Color: g.To, Opacity: 1},
			})
		}
		canvas.DefEnd()
	}

	canvas.Group(fmt.Sprintf(`transform="translate(%.2f,%.2f) scale(%.4f)"`, t.X, t.Y, t.K))

	canvas.Group(`class="edges"`)
	for _, e := range s.Edges {
		if !e.HasPath {
			continue
		}
		stroke := e.Color
		if e.Gradient != nil {
			stroke = fmt.Sprintf("url(#%s)", e.Gradient.ID)
		}
		canvas.Path(e.Path(),
			fmt.Sprintf(`data-id="%s"`, html.EscapeString(e.ID)),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.2f;stroke-opacity:%.2f", stroke, e.Width, e.Opacity))
	}
	canvas.Gend()

	canvas.Group(`class="nodes"`)
	for _, n := range s.Nodes {
		if !n.HasPos {
			continue
		}
		canvas.Group(
			fmt.Sprintf(`data-id="%s"`, html.EscapeString(n.ID)),
			fmt.Sprintf(`transform="translate(%.2f,%.2f)"`, n.X, n.Y),
			fmt.Sprintf("opacity:%.2f", n.Opacity))
		canvas.Circle(0, 0, int(math.Round(n.Radius)),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.5", n.Fill, n.Stroke))
		if o.labels && n.Label != "" {
			canvas.Text(0, int(math.Round(n.Radius+s.FontSize+2)), n.Label,
				fmt.Sprintf("fill:%s;font-size:%.0fpx;font-family:sans-serif;text-anchor:middle", s.LabelColor, s.FontSize))
		}
		canvas.Gend()
	}
	canvas.Gend()

	canvas.Gend()
	canvas.End()
}

func collectGradients(edges []render.EdgeElement) []render.Gradient {
	var out []render.Gradient
	for _, e := range edges {
		if e.HasPath && e.Gradient != nil {
			out = append(out, *e.Gradient)
		}
	}
	return out
}

// gradientBox maps gradient end points to percentages of their bounding box,
// which is how svgo expresses linearGradient coordinates.
func gradientBox(g render.Gradient) (x1, y1, x2, y2 uint8) {
	pct := func(a, b float64) (uint8, uint8) {
		switch {
		case math.Abs(a-b) < 1e-9:
			return 0, 0
		case a < b:
			return 0, 100
		default:
			return 100, 0
		}
	}
	x1, x2 = pct(g.X1, g.X2)
	y1, y2 = pct(g.Y1, g.Y2)
	if x1 == x2 && y1 == y2 {
		x2 = 100
	}
	return x1, y1, x2, y2
}
