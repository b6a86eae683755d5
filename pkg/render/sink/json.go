package sink

import (
	"github.com/goccy/go-json"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/render"
)

// Graph is the JSON form of a scene: a node list and a link list keyed by
// node id, as d3 force views expect.
type Graph struct {
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Transform Transform `json:"transform"`
	Nodes     []Node    `json:"nodes"`
	Links     []Link    `json:"links"`
}

// Transform is the pan/zoom transform.
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Node is one drawn node.
type Node struct {
	ID          string   `json:"id"`
	Label       string   `json:"label,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Radius      float64  `json:"radius"`
	FillColor   string   `json:"fillColor"`
	Color       string   `json:"color,omitempty"`
	Opacity     float64  `json:"opacity"`
	Highlighted bool     `json:"highlighted,omitempty"`
}

// Link is one drawn edge.
type Link struct {
	ID       string     `json:"id"`
	Source   string     `json:"source"`
	Target   string     `json:"target"`
	Width    float64    `json:"width"`
	Opacity  float64    `json:"opacity"`
	Color    string     `json:"color,omitempty"`
	Gradient *[2]string `json:"gradient,omitempty"`
	Path     string     `json:"path,omitempty"`
}

// BuildGraph converts a scene into its JSON form.
func BuildGraph(s render.Scene, opts ...Option) Graph {
	o := newOptions(opts)
	t := o.transform(s)
	g := Graph{
		Width:     s.Width,
		Height:    s.Height,
		Transform: Transform{X: t.X, Y: t.Y, K: t.K},
		Nodes:     make([]Node, 0, len(s.Nodes)),
		Links:     make([]Link, 0, len(s.Edges)),
	}
	for _, n := range s.Nodes {
		jn := Node{
			ID:          n.ID,
			Radius:      n.Radius,
			FillColor:   n.Fill,
			Color:       n.Stroke,
			Opacity:     n.Opacity,
			Highlighted: n.Highlighted,
		}
		if o.labels {
			jn.Label = n.Label
		}
		if n.HasPos {
			x, y := n.X, n.Y
			jn.X, jn.Y = &x, &y
		}
		g.Nodes = append(g.Nodes, jn)
	}
	for _, e := range s.Edges {
		l := Link{
			ID:      e.ID,
			Source:  e.Source,
			Target:  e.Target,
			Width:   e.Width,
			Opacity: e.Opacity,
			Color:   e.Color,
			Path:    e.Path(),
		}
		if e.Gradient != nil {
			l.Gradient = &[2]string{e.Gradient.From, e.Gradient.To}
		}
		g.Links = append(g.Links, l)
	}
	return g
}

// RenderJSON encodes the scene as indented JSON.
func RenderJSON(s render.Scene, opts ...Option) ([]byte, error) {
	data, err := json.MarshalIndent(BuildGraph(s, opts...), "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode scene")
	}
	return data, nil
}
