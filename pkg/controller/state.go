package controller

import (
	"slices"
)

// State is a point-in-time summary for hosts.
type State struct {
	ID             string   `json:"id"`
	Initialized    bool     `json:"initialized"`
	Selected       []string `json:"selected"`
	SelectionColor string   `json:"selection_color,omitempty"`
	Hovered        string   `json:"hovered,omitempty"`
	Zoom           float64  `json:"zoom"`
	Stabilizing    bool     `json:"stabilizing"`
	Tick           int      `json:"tick"`
	Progress       int      `json:"progress"`
	Transitioning  bool     `json:"transitioning"`
	Queued         int      `json:"queued"`
	Waves          int      `json:"waves"` // Pending color-flow hops
	Nodes          int      `json:"nodes"`
	Edges          int      `json:"edges"`
	Issues         int      `json:"issues"`
}

// State returns the current state.
func (c *Controller) State() State {
	s := State{
		ID:             c.id,
		Initialized:    c.initialized,
		Selected:       slices.Clone(c.sel.order),
		SelectionColor: c.sel.color,
		Hovered:        c.hovered,
		Zoom:           c.zoom,
		Stabilizing:    c.engine.Running(),
		Tick:           c.engine.Ticks(),
		Progress:       c.engine.Progress(),
		Transitioning:  c.current != nil,
		Queued:         len(c.queue),
		Waves:          len(c.renderer.PendingHops()),
	}
	if s.Selected == nil {
		s.Selected = []string{}
	}
	if c.data != nil {
		s.Nodes, s.Edges, s.Issues = len(c.data.Nodes), len(c.data.Edges), len(c.data.Issues)
	}
	return s
}
