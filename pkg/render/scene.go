package render

import (
	"fmt"
	"math"
)

// Layer names, bottom to top.
const (
	LayerBackground = "background"
	LayerEdges      = "edges"
	LayerNodes      = "nodes"
)

// Transform is the pan/zoom transform from world to screen coordinates:
// screen = world*K + (X, Y).
type Transform struct {
	X, Y float64
	K    float64
}

// Identity is the unit transform.
var Identity = Transform{K: 1}

// Apply maps a world point to screen space.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a screen point to world space.
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// NodeElement is the retained visual for one node: a circle and a label.
type NodeElement struct {
	ID      string
	Label   string
	X, Y    float64
	HasPos  bool
	Radius  float64
	Fill    string // Displayed fill; animated by color-flow
	Stroke  string
	base    string // Data color the fill was last reset to
	Opacity float64

	Highlighted bool

	// Serial identifies the element instance; it changes only when the
	// element is destroyed and recreated.
	Serial uint64
}

// Gradient is a two-stop linear gradient along an edge.
type Gradient struct {
	ID             string
	From, To       string
	X1, Y1, X2, Y2 float64
}

// EdgeElement is the retained visual for one edge: a quadratic curve.
type EdgeElement struct {
	ID             string
	Source, Target string
	Width          float64
	Opacity        float64
	Color          string
	Gradient       *Gradient // Overrides Color when set
	HasPath        bool
	X1, Y1         float64
	CX, CY         float64 // Quadratic control point
	X2, Y2         float64
	Serial         uint64
}

// Path returns the SVG path data for the edge.
func (e *EdgeElement) Path() string {
	if !e.HasPath {
		return ""
	}
	return fmt.Sprintf("M%.2f,%.2f Q%.2f,%.2f %.2f,%.2f", e.X1, e.Y1, e.CX, e.CY, e.X2, e.Y2)
}

// curve computes the control point of an edge between two positions.
// Self-loops arch above the node.
func curve(x1, y1, x2, y2, curvature, radius float64) (cx, cy, sx, sy, tx, ty float64) {
	if x1 == x2 && y1 == y2 {
		return x1, y1 - 4*radius, x1 - radius/2, y1 - radius, x1 + radius/2, y1 - radius
	}
	mx, my := (x1+x2)/2, (y1+y2)/2
	dx, dy := x2-x1, y2-y1
	return mx - dy*curvature, my + dx*curvature, x1, y1, x2, y2
}

// Scene is an immutable snapshot of the retained elements, in draw order.
type Scene struct {
	Width, Height float64
	Background    string
	LabelColor    string
	FontSize      float64
	Transform     Transform
	Edges         []EdgeElement
	Nodes         []NodeElement
}

// Bounds returns the world-space bounding box of all positioned nodes,
// including their radii. Reports false when nothing is positioned.
func (s Scene) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range s.Nodes {
		if !n.HasPos {
			continue
		}
		ok = true
		minX, minY = math.Min(minX, n.X-n.Radius), math.Min(minY, n.Y-n.Radius)
		maxX, maxY = math.Max(maxX, n.X+n.Radius), math.Max(maxY, n.Y+n.Radius)
	}
	return minX, minY, maxX, maxY, ok
}

// Node returns the node element with the given id.
func (s Scene) Node(id string) (NodeElement, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeElement{}, false
}

// Edge returns the edge element with the given id.
func (s Scene) Edge(id string) (EdgeElement, bool) {
	for _, e := range s.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return EdgeElement{}, false
}

// Fit returns a transform that centers every positioned node within the
// scene, leaving margin pixels on each side. The scale is clamped to
// [MinZoom, MaxZoom]; an empty scene yields the identity.
func (s Scene) Fit(margin float64) Transform {
	minX, minY, maxX, maxY, ok := s.Bounds()
	if !ok || s.Width <= 2*margin || s.Height <= 2*margin {
		return Identity
	}
	w, h := math.Max(maxX-minX, 1), math.Max(maxY-minY, 1)
	k := math.Min((s.Width-2*margin)/w, (s.Height-2*margin)/h)
	k = math.Max(MinZoom, math.Min(MaxZoom, k))
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return Transform{X: s.Width/2 - cx*k, Y: s.Height/2 - cy*k, K: k}
}
