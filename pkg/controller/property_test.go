package controller

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/matzehuels/flowgraph/pkg/config"
	"github.com/matzehuels/flowgraph/pkg/events"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/loop"
)

func palette(n int) graph.Dataset {
	var d graph.Dataset
	for i := range n {
		d.Nodes = append(d.Nodes, graph.Node{
			ID:    fmt.Sprintf("n%d", i),
			Label: fmt.Sprintf("N%d", i),
			Value: i + 1,
			Color: fmt.Sprintf("#%02x%02x%02x", 40*i, 255-30*i, 17*i),
		})
		if i > 0 {
			d.Edges = append(d.Edges, graph.Edge{From: fmt.Sprintf("n%d", i-1), To: fmt.Sprintf("n%d", i)})
		}
	}
	return d
}

// TestSelectionProperties drives random clicks, background clicks and
// clock steps, and checks that transitions never overlap and that, once
// the queue drains, selected nodes show the shared selection color and
// every other node its own color. With color flow on, a node next to a
// selected one may also keep the selection color.
func TestSelectionProperties(t *testing.T) {
	for _, flow := range []bool{false, true} {
		t.Run(fmt.Sprintf("color_flow=%v", flow), func(t *testing.T) {
			checkSelection(t, flow)
		})
	}
}

func checkSelection(t *testing.T, colorFlow bool) {
	d := palette(6)
	adjacent := map[string][]string{}
	for _, e := range d.Edges {
		adjacent[e.From] = append(adjacent[e.From], e.To)
		adjacent[e.To] = append(adjacent[e.To], e.From)
	}

	rapid.Check(t, func(t *rapid.T) {
		l := loop.New(0)
		cfg := config.Default()
		cfg.Selection.ColorFlow = colorFlow
		c := New(l, cfg, WithLogger(quiet()), WithSeed(7))
		if f := c.UpdateData(context.Background(), d); f.Err() != nil {
			t.Fatalf("UpdateData: %v", f.Err())
		}

		// Handlers run under the bus's panic recovery, so failures are
		// checked after each operation instead of inside them.
		active, peak := 0, 0
		c.On(events.KindColorFlowStarted, func(events.Event) {
			active++
			peak = max(peak, active)
		})
		c.On(events.KindColorFlowComplete, func(events.Event) { active-- })
		cleared := 0
		c.On(events.KindSelectionCleared, func(events.Event) { cleared++ })

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for range steps {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0, 1:
				c.Click(rapid.SampledFrom(d.NodeIDs()).Draw(t, "node"))
			case 2:
				empty := len(c.Selected()) == 0
				queued, before := len(c.Pending()), cleared
				c.BackgroundClick()
				if empty && (len(c.Pending()) != queued || cleared != before) {
					t.Fatalf("background click on empty selection enqueued work")
				}
			case 3:
				for range rapid.IntRange(1, 30).Draw(t, "frames") {
					l.Step()
				}
			}
			if peak > 1 {
				t.Fatalf("%d transitions in flight", peak)
			}
		}

		r := c.Renderer()
		drained := func() bool {
			return !c.Transitioning() && !r.Animating() && len(r.PendingHops()) == 0
		}
		if !l.StepUntil(drained, 10000) {
			t.Fatalf("queue did not drain")
		}
		for _, n := range c.Data().Nodes {
			got, _ := r.Fill(n.ID)
			want := n.Color
			if slices.Contains(c.Selected(), n.ID) {
				want = c.SelectionColor()
			} else if colorFlow && got == c.SelectionColor() && slices.ContainsFunc(adjacent[n.ID], func(id string) bool {
				return slices.Contains(c.Selected(), id)
			}) {
				continue
			}
			if got != want {
				t.Fatalf("%s fill = %s, want %s (selected=%v)", n.ID, got, want, c.Selected())
			}
		}
		if len(c.Selected()) == 0 && c.SelectionColor() != "" {
			t.Fatalf("selection color %q kept for empty selection", c.SelectionColor())
		}
	})
}
