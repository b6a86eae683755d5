package controller

import (
	"slices"

	"github.com/matzehuels/flowgraph/pkg/events"
	"github.com/matzehuels/flowgraph/pkg/render"
)

// TransitionKind distinguishes the three color-flow transitions.
type TransitionKind int

const (
	Select TransitionKind = iota
	Unselect
	Restore
)

func (k TransitionKind) String() string {
	switch k {
	case Select:
		return "select"
	case Unselect:
		return "unselect"
	case Restore:
		return "restore"
	}
	return "unknown"
}

// Transition is one queued color-flow: node ID animates to Target, then
// the wave spreads across Connected.
type Transition struct {
	Kind      TransitionKind `json:"kind"`
	ID        string         `json:"id"`
	Target    string         `json:"target"`
	Connected []string       `json:"connected,omitempty"`
}

// Reverse reports whether the transition undoes a selection.
func (t Transition) Reverse() bool { return t.Kind != Select }

// selection is the selection state. order keeps selection order so that
// restore-all is deterministic.
type selection struct {
	order []string
	// originals holds each node's color captured at its first selection.
	// Entries are never overwritten.
	originals map[string]string
	// color is the color of the first node selected into an empty
	// selection; every later selection animates toward it.
	color string
}

func newSelection() selection {
	return selection{originals: map[string]string{}}
}

func (s *selection) has(id string) bool { return slices.Contains(s.order, id) }

func (s *selection) remove(id string) {
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
}

// =============================================================================
// Selection Transitions
// =============================================================================

// Click toggles the selection of a node.
func (c *Controller) Click(id string) {
	if c.sel.has(id) {
		c.unselect(id)
		return
	}
	c.selectNode(id)
}

func (c *Controller) selectNode(id string) {
	if c.data == nil {
		return
	}
	n, ok := c.data.Node(id)
	if !ok {
		c.logger.Warn("click on unknown node", "id", id)
		return
	}
	if _, seen := c.sel.originals[id]; !seen {
		c.sel.originals[id] = n.Color
	}
	if len(c.sel.order) == 0 {
		c.sel.color = n.Color
	}
	c.enqueue(Transition{Kind: Select, ID: id, Target: c.sel.color, Connected: c.data.Neighbors(id)})
	c.sel.order = append(c.sel.order, id)
	c.bus.Emit(events.NodeSelected{ID: id})
}

func (c *Controller) unselect(id string) {
	c.enqueue(Transition{Kind: Unselect, ID: id, Target: c.sel.originals[id], Connected: c.neighbors(id)})
	c.sel.remove(id)
	if len(c.sel.order) == 0 {
		c.sel.color = ""
	}
	c.bus.Emit(events.NodeUnselected{ID: id})
}

// BackgroundClick restores every selected node to its original color and
// empties the selection. With nothing selected it does nothing.
func (c *Controller) BackgroundClick() {
	if len(c.sel.order) == 0 {
		return
	}
	for _, id := range c.sel.order {
		c.enqueue(Transition{Kind: Restore, ID: id, Target: c.sel.originals[id], Connected: c.neighbors(id)})
	}
	c.sel.order = nil
	c.sel.color = ""
	c.bus.Emit(events.SelectionCleared{})
}

// ClearSelection restores and empties the selection like a background
// click, and forgets the captured original colors.
func (c *Controller) ClearSelection() {
	c.BackgroundClick()
	clear(c.sel.originals)
}

// Selected returns the selected ids in selection order.
func (c *Controller) Selected() []string { return slices.Clone(c.sel.order) }

// SelectionColor returns the shared selection color, empty when nothing is
// selected.
func (c *Controller) SelectionColor() string { return c.sel.color }

// OriginalColor returns the color captured when id was first selected.
func (c *Controller) OriginalColor(id string) (string, bool) {
	col, ok := c.sel.originals[id]
	return col, ok
}

// hopColor picks the color a wave paints a neighbor with as the hop
// starts. Selected nodes keep the selection color and a select wave floods
// the neighbors of an origin that is still selected. Every other hop
// returns the node to its resting color.
func (c *Controller) hopColor(h render.Hop) string {
	if c.sel.has(h.ID) || (!h.Reverse && c.sel.has(h.Origin)) {
		return c.sel.color
	}
	return c.restingColor(h.ID)
}

// restingColor is the color a node shows outside any selection: the color
// captured at its first selection, else its data color.
func (c *Controller) restingColor(id string) string {
	if col, ok := c.sel.originals[id]; ok {
		return col
	}
	if c.data != nil {
		if n, ok := c.data.Node(id); ok {
			return n.Color
		}
	}
	return ""
}

func (c *Controller) neighbors(id string) []string {
	if c.data == nil {
		return nil
	}
	return c.data.Neighbors(id)
}

// =============================================================================
// Transition Queue
// =============================================================================

// enqueue appends t and starts draining when the queue is idle.
func (c *Controller) enqueue(t Transition) {
	c.queue = append(c.queue, t)
	if c.current == nil {
		c.drain()
	}
}

// drain starts the next queued transition. Exactly one transition is in
// flight until its own step resolves; the next starts whether it
// succeeded or not.
func (c *Controller) drain() {
	for len(c.queue) > 0 {
		t := c.queue[0]
		c.queue = c.queue[1:]
		c.current = &t

		var wave []string
		if c.cfg.Selection.ColorFlow {
			wave = t.Connected
		}
		c.bus.Emit(events.ColorFlowStarted{ID: t.ID, Reverse: t.Reverse()})

		gen := c.gen
		f := c.renderer.AnimateColorTransition(t.ID, t.Target, wave, t.Reverse())
		if !f.Done() {
			f.Then(func(err error) {
				if gen != c.gen {
					return
				}
				c.finish(t, err)
				c.current = nil
				c.drain()
			})
			return
		}
		c.finish(t, f.Err())
	}
	c.current = nil
}

// finish reports the end of a transition. The transition still counts as
// in flight so that handlers enqueueing from here do not start a second
// drain.
func (c *Controller) finish(t Transition, err error) {
	if err != nil {
		c.logger.Warn("transition failed", "kind", t.Kind, "id", t.ID, "err", err)
		return
	}
	c.bus.Emit(events.ColorFlowComplete{ID: t.ID, Reverse: t.Reverse()})
}

// Pending returns the queued transitions not yet started.
func (c *Controller) Pending() []Transition { return slices.Clone(c.queue) }

// Transitioning reports whether a transition is in flight.
func (c *Controller) Transitioning() bool { return c.current != nil }

// =============================================================================
// Hover, Drag, Zoom
// =============================================================================

// Hover highlights id and its neighbors, or clears highlighting for an
// empty id. With a non-empty selection only unselected neighbors are
// highlighted, and selected nodes stay opaque when opacity preservation is
// on.
func (c *Controller) Hover(id string) {
	if id == c.hovered {
		return
	}
	c.hovered = id
	c.bus.Emit(events.NodeHovered{ID: id})

	if id == "" || c.data == nil {
		c.renderer.ClearHighlights(nil)
		return
	}
	neighbors := c.data.Neighbors(id)
	if len(c.sel.order) == 0 {
		c.renderer.HighlightNodes(append([]string{id}, neighbors...), nil)
		return
	}
	ids := []string{id}
	for _, nb := range neighbors {
		if !c.sel.has(nb) {
			ids = append(ids, nb)
		}
	}
	var stable []string
	if c.cfg.Selection.PreserveOpacity {
		stable = c.sel.order
	}
	c.renderer.HighlightNodes(ids, stable)
}

// Hovered returns the hovered node id, empty when none.
func (c *Controller) Hovered() string { return c.hovered }

func (c *Controller) dragStart(id string) {
	c.engine.FixNode(id)
}

func (c *Controller) drag(id string, x, y float64) {
	c.engine.DragTo(id, x, y)
	c.engine.Reheat(dragAlpha)
}

func (c *Controller) dragEnd(id string) {
	c.engine.UnfixNode(id)
}

func (c *Controller) zoomed(scale float64) {
	c.zoom = scale
	c.bus.Emit(events.ZoomChanged{Scale: scale})
}

// Zoom sets the view scale about the surface center. The scale is clamped
// and a zoom change is always emitted.
func (c *Controller) Zoom(scale float64) { c.renderer.ZoomTo(scale) }

// Pointer forwards a raw pointer event to the renderer's hit testing.
func (c *Controller) Pointer(p render.Pointer) { c.renderer.HandlePointer(p) }

// Drag moves a node to world coordinates as a complete drag gesture.
func (c *Controller) Drag(id string, x, y float64) {
	c.dragStart(id)
	c.drag(id, x, y)
	c.dragEnd(id)
}

// RestartLayout reheats the simulation to full energy from the current
// positions.
func (c *Controller) RestartLayout() { c.engine.Restart() }

// StopLayout halts the simulation, keeping positions.
func (c *Controller) StopLayout() { c.engine.Stop() }
