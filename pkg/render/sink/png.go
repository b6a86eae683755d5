package sink

import (
	"bytes"
	"image/color"
	"image/png"

	"git.sr.ht/~sbinet/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/render"
)

// RenderPNG rasterizes the scene in-process. The image is the scene size
// multiplied by the scale option.
func RenderPNG(s render.Scene, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	t := o.transform(s)
	w, h := int(s.Width*o.scale), int(s.Height*o.scale)
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scene has zero size")
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(rgba(s.Background, 1))
	dc.Clear()

	dc.Scale(o.scale, o.scale)
	dc.Translate(t.X, t.Y)
	dc.Scale(t.K, t.K)

	for _, e := range s.Edges {
		if !e.HasPath {
			continue
		}
		if g := e.Gradient; g != nil {
			grad := gg.NewLinearGradient(g.X1, g.Y1, g.X2, g.Y2)
			grad.AddColorStop(0, rgba(g.From, e.Opacity))
			grad.AddColorStop(1, rgba(g.To, e.Opacity))
			dc.SetStrokeStyle(grad)
		} else {
			dc.SetColor(rgba(e.Color, e.Opacity))
		}
		dc.SetLineWidth(e.Width)
		dc.MoveTo(e.X1, e.Y1)
		dc.QuadraticTo(e.CX, e.CY, e.X2, e.Y2)
		dc.Stroke()
	}

	dc.SetFontFace(basicfont.Face7x13)
	for _, n := range s.Nodes {
		if !n.HasPos {
			continue
		}
		dc.DrawCircle(n.X, n.Y, n.Radius)
		dc.SetColor(rgba(n.Fill, n.Opacity))
		dc.FillPreserve()
		dc.SetColor(rgba(n.Stroke, n.Opacity))
		dc.SetLineWidth(1.5)
		dc.Stroke()
		if o.labels && n.Label != "" {
			dc.SetColor(rgba(s.LabelColor, n.Opacity))
			dc.DrawStringAnchored(n.Label, n.X, n.Y+n.Radius+s.FontSize, 0.5, 0.5)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// rgba parses a hex color with an opacity. Unparseable colors draw as grey.
func rgba(hex string, opacity float64) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(max(0, min(1, opacity))*255 + 0.5)}
}
