package render

import (
	"math"
)

// PointerKind is the type of a raw pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
	PointerWheel
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	case PointerWheel:
		return "wheel"
	}
	return "unknown"
}

// Pointer is a raw pointer event in screen coordinates. Delta is the wheel
// movement in notches; positive zooms in.
type Pointer struct {
	Kind  PointerKind
	X, Y  float64
	Delta float64
}

// Handlers receives interaction callbacks. Nil fields are skipped.
type Handlers struct {
	NodeClick       func(id string)
	BackgroundClick func()
	Hover           func(id string) // Empty id when the pointer leaves a node
	DragStart       func(id string)
	Drag            func(id string, x, y float64) // World coordinates
	DragEnd         func(id string)
	Zoom            func(scale float64)
}

type pointerState struct {
	down     bool
	node     string // Node pressed, empty for background
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	dragging bool
	panning  bool
	hovered  string
}

// SetHandlers replaces the interaction callbacks.
func (r *Renderer) SetHandlers(h Handlers) { r.handlers = h }

// HitTest returns the topmost positioned node under a screen point.
func (r *Renderer) HitTest(x, y float64) (string, bool) {
	wx, wy := r.transform.Invert(x, y)
	for i := len(r.nodes) - 1; i >= 0; i-- {
		n := r.nodes[i]
		if n.HasPos && math.Hypot(wx-n.X, wy-n.Y) <= n.Radius {
			return n.ID, true
		}
	}
	return "", false
}

// HandlePointer interprets a raw pointer event: node press and release is
// a click, node press and move is a drag, background press and move pans,
// background press and release is a background click, and wheel zooms
// about the pointer.
func (r *Renderer) HandlePointer(p Pointer) {
	if !r.ready {
		return
	}
	ps := &r.pointer
	switch p.Kind {
	case PointerDown:
		id, _ := r.HitTest(p.X, p.Y)
		*ps = pointerState{down: true, node: id, startX: p.X, startY: p.Y, lastX: p.X, lastY: p.Y, hovered: ps.hovered}

	case PointerMove:
		if !ps.down {
			r.hover(p.X, p.Y)
			return
		}
		if !ps.dragging && !ps.panning && math.Hypot(p.X-ps.startX, p.Y-ps.startY) < dragSlop {
			return
		}
		if ps.node != "" {
			if !ps.dragging {
				ps.dragging = true
				if r.handlers.DragStart != nil {
					r.handlers.DragStart(ps.node)
				}
			}
			r.dragTo(ps.node, p.X, p.Y)
		} else {
			ps.panning = true
			r.PanBy(p.X-ps.lastX, p.Y-ps.lastY)
		}
		ps.lastX, ps.lastY = p.X, p.Y

	case PointerUp:
		if !ps.down {
			return
		}
		state := *ps
		*ps = pointerState{hovered: state.hovered}
		switch {
		case state.dragging:
			if r.handlers.DragEnd != nil {
				r.handlers.DragEnd(state.node)
			}
		case state.panning:
		case state.node != "":
			if r.handlers.NodeClick != nil {
				r.handlers.NodeClick(state.node)
			}
		default:
			if r.handlers.BackgroundClick != nil {
				r.handlers.BackgroundClick()
			}
		}

	case PointerLeave:
		if ps.dragging && r.handlers.DragEnd != nil {
			r.handlers.DragEnd(ps.node)
		}
		hovered := ps.hovered
		*ps = pointerState{}
		if hovered != "" && r.handlers.Hover != nil {
			r.handlers.Hover("")
		}

	case PointerWheel:
		r.ZoomAt(math.Pow(WheelStep, p.Delta), p.X, p.Y)
	}
}

func (r *Renderer) hover(x, y float64) {
	id, _ := r.HitTest(x, y)
	if id == r.pointer.hovered {
		return
	}
	r.pointer.hovered = id
	if r.handlers.Hover != nil {
		r.handlers.Hover(id)
	}
}

func (r *Renderer) dragTo(id string, x, y float64) {
	wx, wy := r.transform.Invert(x, y)
	if el := r.nodeIndex[id]; el != nil {
		el.X, el.Y, el.HasPos = wx, wy, true
		for _, e := range r.incident[id] {
			r.layoutEdge(e)
		}
	}
	if r.handlers.Drag != nil {
		r.handlers.Drag(id, wx, wy)
	}
}

// Transform returns the pan/zoom transform.
func (r *Renderer) Transform() Transform { return r.transform }

// Zoom returns the current scale.
func (r *Renderer) Zoom() float64 { return r.transform.K }

// ZoomAt scales the view by factor about a screen point, clamped to
// [MinZoom, MaxZoom]. The Zoom handler runs for every zoom gesture, including
// ones pinned at a bound.
func (r *Renderer) ZoomAt(factor, x, y float64) {
	r.setZoom(r.transform.K*factor, x, y)
}

// ZoomTo sets the scale about the surface center.
func (r *Renderer) ZoomTo(k float64) {
	r.setZoom(k, r.width/2, r.height/2)
}

func (r *Renderer) setZoom(k, x, y float64) {
	if math.IsNaN(k) || k <= 0 {
		return
	}
	k = math.Max(MinZoom, math.Min(MaxZoom, k))
	wx, wy := r.transform.Invert(x, y)
	r.transform = Transform{X: x - wx*k, Y: y - wy*k, K: k}
	if r.handlers.Zoom != nil {
		r.handlers.Zoom(k)
	}
}

// PanBy translates the view in screen pixels.
func (r *Renderer) PanBy(dx, dy float64) {
	r.transform.X += dx
	r.transform.Y += dy
}
