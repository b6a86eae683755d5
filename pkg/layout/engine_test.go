package layout

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/loop"
	"github.com/matzehuels/flowgraph/pkg/process"
)

func chain(n int) *process.Result {
	var d graph.Dataset
	for i := range n {
		id := fmt.Sprintf("n%d", i)
		d.Nodes = append(d.Nodes, graph.Node{ID: id, Label: id, Value: float64(i)})
		if i > 0 {
			d.Edges = append(d.Edges, graph.Edge{From: fmt.Sprintf("n%d", i-1), To: id})
		}
	}
	return process.Process(d, process.Options{})
}

func quietLogger() *log.Logger { return log.New(&bytes.Buffer{}) }

func TestSetDataCircle(t *testing.T) {
	res := chain(4)
	e := New(nil, DefaultParams(), WithSize(800, 400), WithLogger(quietLogger()))
	e.SetData(res.Nodes, res.Edges)

	for _, n := range res.Nodes {
		r := math.Hypot(n.X-400, n.Y-200)
		if math.Abs(r-100) > 1e-9 {
			t.Errorf("%s at radius %v, want 100", n.ID, r)
		}
	}
	if e.State() != Idle {
		t.Errorf("State() = %v after SetData, want idle", e.State())
	}
}

func TestRunCompletesOnce(t *testing.T) {
	res := chain(6)
	l := loop.New(0)

	var ticks, completions int
	var progress []int
	var order []string
	e := New(l, DefaultParams(),
		WithLogger(quietLogger()),
		OnTick(func() { ticks++; order = append(order, "tick") }),
		OnProgress(func(p int) { progress = append(progress, p); order = append(order, "progress") }),
		OnComplete(func(int) { completions++ }),
	)
	e.SetData(res.Nodes, res.Edges)
	e.Restart()

	l.StepUntil(func() bool { return !e.Running() }, 1000)
	l.Advance(100 * l.Frame())

	if completions != 1 {
		t.Errorf("completions = %d, want 1", completions)
	}
	if ticks > DefaultMaxTicks {
		t.Errorf("ticks = %d, want <= %d", ticks, DefaultMaxTicks)
	}
	if last := progress[len(progress)-1]; last != e.Progress() {
		t.Errorf("last progress = %d, want %d", last, e.Progress())
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress decreased: %v", progress[i-1:i+1])
		}
	}
	if order[0] != "tick" || order[1] != "progress" {
		t.Errorf("callback order = %v, want tick before progress", order[:2])
	}
}

func TestConvergenceBeforeMaxTicks(t *testing.T) {
	p := DefaultParams()
	p.AlphaDecay = 0.5
	res := chain(3)

	completedAt := -1
	e := New(nil, p, WithLogger(quietLogger()), OnComplete(func(n int) { completedAt = n }))
	e.SetData(res.Nodes, res.Edges)
	got := e.Settle()

	// alpha halves each tick: 2^-10 < 0.001 <= 2^-9
	if got != 10 || completedAt != 10 {
		t.Errorf("Settle() = %d, completed at %d, want 10", got, completedAt)
	}
}

func TestMaxTicksCap(t *testing.T) {
	p := DefaultParams()
	p.AlphaDecay = 1e-4
	p.MaxTicks = 25
	res := chain(3)

	completions := 0
	e := New(nil, p, WithLogger(quietLogger()), OnComplete(func(int) { completions++ }))
	e.SetData(res.Nodes, res.Edges)

	if got := e.Settle(); got != 25 {
		t.Errorf("Settle() = %d, want 25", got)
	}
	if completions != 1 || e.Progress() != 100 {
		t.Errorf("completions = %d, progress = %d", completions, e.Progress())
	}
}

func TestStopLeavesPositions(t *testing.T) {
	res := chain(5)
	l := loop.New(0)
	completions := 0
	e := New(l, DefaultParams(), WithLogger(quietLogger()), OnComplete(func(int) { completions++ }))
	e.SetData(res.Nodes, res.Edges)
	e.Restart()
	l.Advance(5 * l.Frame())

	e.Stop()
	before := make([][2]float64, len(res.Nodes))
	for i, n := range res.Nodes {
		before[i] = [2]float64{n.X, n.Y}
	}
	l.Advance(20 * l.Frame())

	for i, n := range res.Nodes {
		if n.X != before[i][0] || n.Y != before[i][1] {
			t.Errorf("%s moved after Stop", n.ID)
		}
	}
	if completions != 0 {
		t.Errorf("completions = %d after Stop, want 0", completions)
	}
	if e.Ticks() != 5 {
		t.Errorf("Ticks() = %d, want 5", e.Ticks())
	}

	e.Restart()
	if e.Alpha() != 1 || !e.Running() {
		t.Errorf("Restart: alpha = %v running = %v", e.Alpha(), e.Running())
	}
}

func TestFixedNodeHolds(t *testing.T) {
	res := chain(4)
	e := New(nil, DefaultParams(), WithLogger(quietLogger()))
	e.SetData(res.Nodes, res.Edges)

	e.FixNode("n0")
	e.DragTo("n0", 10, 20)
	e.Settle()

	n0, _ := res.Node("n0")
	if n0.X != 10 || n0.Y != 20 {
		t.Errorf("fixed node at (%v, %v), want (10, 20)", n0.X, n0.Y)
	}

	e.DragTo("n0", math.NaN(), 5)
	if n0.X != 10 {
		t.Error("DragTo accepted NaN")
	}

	e.UnfixNode("n0")
	e.Restart()
	for range 10 {
		e.Tick()
	}
	if n0.X == 10 && n0.Y == 20 {
		t.Error("unfixed node did not move")
	}
}

func TestNaNNodeSkipped(t *testing.T) {
	res := chain(3)
	e := New(nil, DefaultParams(), WithLogger(quietLogger()))
	e.SetData(res.Nodes, res.Edges)

	bad, _ := res.Node("n1")
	bad.X = math.NaN()
	good, _ := res.Node("n2")
	x0 := good.X

	e.Restart()
	e.Tick()

	if !math.IsNaN(bad.X) {
		t.Errorf("NaN node was integrated: x = %v", bad.X)
	}
	if good.X == x0 {
		t.Error("healthy node did not move")
	}
	if math.IsNaN(good.X) || math.IsNaN(good.Y) {
		t.Error("NaN leaked into healthy node")
	}
}

func TestCollisionSeparates(t *testing.T) {
	d := graph.Dataset{Nodes: []graph.Node{
		{ID: "a", Label: "a"},
		{ID: "b", Label: "b"},
	}}
	res := process.Process(d, process.Options{})
	e := New(nil, DefaultParams(), WithLogger(quietLogger()))
	e.SetData(res.Nodes, res.Edges)

	a, b := res.Nodes[0], res.Nodes[1]
	a.X, a.Y = 400, 300
	b.X, b.Y = 401, 300
	e.Settle()

	dist := math.Hypot(a.X-b.X, a.Y-b.Y)
	if min := (a.CollisionRadius + b.CollisionRadius) * 0.9; dist < min {
		t.Errorf("distance = %.1f, want >= %.1f", dist, min)
	}
}

func TestReheat(t *testing.T) {
	res := chain(3)
	completions := 0
	e := New(nil, DefaultParams(), WithLogger(quietLogger()), OnComplete(func(int) { completions++ }))
	e.SetData(res.Nodes, res.Edges)
	e.Settle()

	e.Reheat(0.3)
	if !e.Running() || e.Alpha() != 0.3 || e.Ticks() != 0 {
		t.Fatalf("Reheat on idle: running=%v alpha=%v ticks=%d", e.Running(), e.Alpha(), e.Ticks())
	}
	e.Tick()
	e.Reheat(0.1)
	if e.Alpha() < 0.29 || e.Ticks() != 1 {
		t.Errorf("Reheat while running lowered alpha or reset ticks: %v/%d", e.Alpha(), e.Ticks())
	}
	e.Settle()
	if completions != 2 {
		t.Errorf("completions = %d, want 2", completions)
	}
}

func TestScaleAndPlace(t *testing.T) {
	res := chain(2)
	e := New(nil, DefaultParams(), WithSize(200, 200), WithLogger(quietLogger()))
	e.SetData(res.Nodes, res.Edges)

	if n := e.Place(map[string][2]float64{"n0": {150, 100}, "zz": {0, 0}}); n != 1 {
		t.Errorf("Place = %d, want 1", n)
	}
	e.Scale(2)
	n0, _ := res.Node("n0")
	if n0.X != 200 || n0.Y != 100 {
		t.Errorf("scaled n0 = (%v, %v), want (200, 100)", n0.X, n0.Y)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"defaults", func(*Params) {}, false},
		{"zero ticks", func(p *Params) { p.MaxTicks = 0 }, true},
		{"inverted distances", func(p *Params) { p.MinDistance = 10; p.MaxDistance = 5 }, true},
		{"decay one", func(p *Params) { p.AlphaDecay = 1 }, true},
		{"collision above one", func(p *Params) { p.Collision = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
