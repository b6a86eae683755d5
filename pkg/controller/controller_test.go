package controller

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/bridge"
	"github.com/matzehuels/flowgraph/pkg/config"
	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/events"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/loop"
	"github.com/matzehuels/flowgraph/pkg/render"
)

// scenario is the a/b/c dataset: a links to b and c.
var scenario = graph.Dataset{
	Nodes: []graph.Node{
		{ID: "a", Label: "A", Value: 1, Color: "#ff0000"},
		{ID: "b", Label: "B", Value: 10, Color: "#00ff00"},
		{ID: "c", Label: "C", Value: 10, Color: "#0000ff"},
	},
	Edges: []graph.Edge{{From: "a", To: "b"}, {From: "a", To: "c"}},
}

type recorder struct {
	events []events.Event
}

func (r *recorder) listen(c *Controller) {
	for _, k := range events.Kinds {
		c.On(k, func(e events.Event) { r.events = append(r.events, e) })
	}
}

func (r *recorder) of(kind events.Kind) []events.Event {
	var out []events.Event
	for _, e := range r.events {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

func quiet() *log.Logger { return log.New(io.Discard) }

// setup returns a controller showing d, with color flow as given.
func setup(t *testing.T, d graph.Dataset, colorFlow bool, opts ...Option) (*Controller, *loop.Loop, *recorder) {
	t.Helper()
	l := loop.New(0)
	cfg := config.Default()
	cfg.Selection.ColorFlow = colorFlow
	c := New(l, cfg, append([]Option{WithLogger(quiet()), WithSeed(1)}, opts...)...)
	rec := &recorder{}
	rec.listen(c)
	f := c.UpdateData(context.Background(), d)
	await(t, l, f)
	if f.Err() != nil {
		t.Fatalf("UpdateData: %v", f.Err())
	}
	return c, l, rec
}

// waitFor flushes the loop until cond holds. Work posted by the bridge
// handshake arrives from another goroutine, so this polls in real time.
func waitFor(t *testing.T, l *loop.Loop, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		l.Flush()
		time.Sleep(time.Millisecond)
	}
}

func await(t *testing.T, l *loop.Loop, f *loop.Future) {
	t.Helper()
	waitFor(t, l, f.Done)
}

// idle steps until no transition, wave or tween remains.
func idle(t *testing.T, c *Controller, l *loop.Loop) {
	t.Helper()
	r := c.Renderer()
	ok := l.StepUntil(func() bool {
		return !c.Transitioning() && len(c.Pending()) == 0 && len(r.PendingHops()) == 0 && !r.Animating()
	}, 2000)
	if !ok {
		t.Fatal("transitions did not finish")
	}
}

func fill(t *testing.T, c *Controller, id string) string {
	t.Helper()
	f, ok := c.Renderer().Fill(id)
	if !ok {
		t.Fatalf("no element for %q", id)
	}
	return f
}

func TestClickScenario(t *testing.T) {
	for _, flow := range []bool{false, true} {
		t.Run(fmt.Sprintf("color_flow=%v", flow), func(t *testing.T) {
			clickScenario(t, flow)
		})
	}
}

func clickScenario(t *testing.T, colorFlow bool) {
	c, l, rec := setup(t, scenario, colorFlow)

	c.Click("a")
	if c.SelectionColor() != "#ff0000" {
		t.Fatalf("selection color = %q, want #ff0000", c.SelectionColor())
	}
	c.Click("b")
	idle(t, c, l)
	if got := fill(t, c, "b"); got != "#ff0000" {
		t.Errorf("b fill = %s, want color(a)", got)
	}

	c.Click("a")
	idle(t, c, l)
	if !slices.Equal(c.Selected(), []string{"b"}) {
		t.Errorf("selected = %v, want [b]", c.Selected())
	}
	if got := fill(t, c, "a"); got != "#ff0000" {
		t.Errorf("a fill = %s, want its original", got)
	}
	if got := fill(t, c, "b"); got != "#ff0000" {
		t.Errorf("b fill = %s, want color(a) while selected", got)
	}
	if c.SelectionColor() != "#ff0000" {
		t.Errorf("selection color changed to %q", c.SelectionColor())
	}

	if got := fill(t, c, "c"); got != "#0000ff" {
		t.Errorf("c fill = %s, want its own color once a is unselected", got)
	}

	c.BackgroundClick()
	idle(t, c, l)
	for _, n := range scenario.Nodes {
		if got := fill(t, c, n.ID); got != n.Color {
			t.Errorf("%s fill = %s, want original %s", n.ID, got, n.Color)
		}
	}
	if len(c.Selected()) != 0 || c.SelectionColor() != "" {
		t.Errorf("selection = %v color=%q, want empty", c.Selected(), c.SelectionColor())
	}

	var kinds []events.Kind
	for _, e := range rec.events {
		switch e.Kind() {
		case events.KindNodeSelected, events.KindNodeUnselected, events.KindSelectionCleared:
			kinds = append(kinds, e.Kind())
		}
	}
	want := []events.Kind{events.KindNodeSelected, events.KindNodeSelected, events.KindNodeUnselected, events.KindSelectionCleared}
	if !slices.Equal(kinds, want) {
		t.Errorf("selection events = %v, want %v", kinds, want)
	}
}

func TestSelectTwoSharesFirstColor(t *testing.T) {
	d := graph.Dataset{Nodes: []graph.Node{
		{ID: "x", Label: "X", Color: "#112233"},
		{ID: "y", Label: "Y", Color: "#445566"},
	}}
	c, l, _ := setup(t, d, true)

	c.Click("x")
	c.Click("y")
	idle(t, c, l)
	for _, id := range []string{"x", "y"} {
		if got := fill(t, c, id); got != "#112233" {
			t.Errorf("%s fill = %s, want #112233", id, got)
		}
	}

	c.Click("x")
	c.Click("y")
	idle(t, c, l)
	if got := fill(t, c, "x"); got != "#112233" {
		t.Errorf("x fill = %s after unselect", got)
	}
	if got := fill(t, c, "y"); got != "#445566" {
		t.Errorf("y fill = %s after unselect, want #445566", got)
	}
	if orig, _ := c.OriginalColor("y"); orig != "#445566" {
		t.Errorf("captured original = %s", orig)
	}
}

func TestUnselectWaveRestoresNeighbors(t *testing.T) {
	c, l, _ := setup(t, scenario, true)

	c.Click("b")
	c.Click("a")
	idle(t, c, l)
	for _, id := range []string{"a", "b", "c"} {
		if got := fill(t, c, id); got != "#00ff00" {
			t.Errorf("%s fill = %s, want selection color #00ff00", id, got)
		}
	}

	// a's reverse wave reaches b, still selected, and c, selected by no one.
	c.Click("a")
	idle(t, c, l)
	want := map[string]string{"a": "#ff0000", "b": "#00ff00", "c": "#0000ff"}
	for id, col := range want {
		if got := fill(t, c, id); got != col {
			t.Errorf("after unselecting a: %s fill = %s, want %s", id, got, col)
		}
	}

	c.Click("b")
	idle(t, c, l)
	for _, n := range scenario.Nodes {
		if got := fill(t, c, n.ID); got != n.Color {
			t.Errorf("after unselecting all: %s fill = %s, want %s", n.ID, got, n.Color)
		}
	}
}

func TestReselectBeforeWaveEnds(t *testing.T) {
	c, l, _ := setup(t, scenario, true)

	// Both toggles are queued before any wave runs.
	c.Click("a")
	c.Click("b")
	idle(t, c, l)
	c.Click("a")
	c.Click("b")
	idle(t, c, l)
	for _, n := range scenario.Nodes {
		if got := fill(t, c, n.ID); got != n.Color {
			t.Errorf("%s fill = %s, want %s", n.ID, got, n.Color)
		}
	}
}

func TestBackgroundClickOnEmptySelection(t *testing.T) {
	c, l, rec := setup(t, scenario, true)

	c.BackgroundClick()
	if len(c.Pending()) != 0 || c.Transitioning() {
		t.Fatal("background click enqueued a transition")
	}
	l.Advance(time.Second)
	if n := len(rec.of(events.KindColorFlowStarted)); n != 0 {
		t.Errorf("%d color flows started", n)
	}
	if n := len(rec.of(events.KindSelectionCleared)); n != 0 {
		t.Errorf("selectionCleared emitted %d times", n)
	}
}

func TestQueueIsSerialized(t *testing.T) {
	c, l, rec := setup(t, scenario, true)

	active, peak := 0, 0
	c.On(events.KindColorFlowStarted, func(events.Event) {
		active++
		peak = max(peak, active)
	})
	c.On(events.KindColorFlowComplete, func(events.Event) { active-- })

	c.Click("a")
	c.Click("b")
	c.Click("c")
	if !c.Transitioning() || len(c.Pending()) != 2 {
		t.Fatalf("transitioning=%v pending=%d, want true and 2", c.Transitioning(), len(c.Pending()))
	}
	idle(t, c, l)

	if peak != 1 {
		t.Errorf("peak in-flight transitions = %d, want 1", peak)
	}
	var done []string
	for _, e := range rec.of(events.KindColorFlowComplete) {
		done = append(done, e.(events.ColorFlowComplete).ID)
	}
	if !slices.Equal(done, []string{"a", "b", "c"}) {
		t.Errorf("completion order = %v", done)
	}
}

func TestFailedTransitionAdvancesQueue(t *testing.T) {
	c, l, rec := setup(t, scenario, false)

	c.Click("a")
	c.Click("b")
	// Drop b from the data while its transition waits in the queue.
	c.UpdateData(context.Background(), graph.Dataset{Nodes: scenario.Nodes[:1]})
	c.Click("a")
	idle(t, c, l)

	var done []string
	for _, e := range rec.of(events.KindColorFlowComplete) {
		done = append(done, e.(events.ColorFlowComplete).ID)
	}
	if !slices.Equal(done, []string{"a", "a"}) {
		t.Errorf("completed = %v, want [a a]", done)
	}
	if c.Transitioning() {
		t.Error("queue stuck after a failed transition")
	}
}

func TestColorFlowWave(t *testing.T) {
	c, l, _ := setup(t, scenario, true)

	c.Click("a")
	r := c.Renderer()
	l.Advance(render.DefaultDuration + l.Frame())
	hops := r.PendingHops()
	if len(hops) != 1 || hops[0].ID != "c" || hops[0].Origin != "a" {
		t.Errorf("pending hops = %+v, want one hop to c", hops)
	}
	idle(t, c, l)
	for _, id := range []string{"b", "c"} {
		if got := fill(t, c, id); got != "#ff0000" {
			t.Errorf("%s fill = %s, want wave color #ff0000", id, got)
		}
	}
}

func TestHover(t *testing.T) {
	d := scenario
	d.Nodes = append(slices.Clone(d.Nodes), graph.Node{ID: "d", Label: "D", Color: "#999999"})
	c, _, rec := setup(t, d, false)

	highlighted := func() []string {
		var ids []string
		for _, n := range c.Snapshot().Nodes {
			if n.Highlighted {
				ids = append(ids, n.ID)
			}
		}
		return ids
	}

	c.Hover("a")
	if got := highlighted(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("highlighted = %v, want [a b c]", got)
	}

	c.Hover("")
	c.Click("b")
	c.Hover("a")
	if got := highlighted(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("highlighted with b selected = %v, want [a c]", got)
	}
	b, _ := c.Snapshot().Node("b")
	if b.Opacity != 1 {
		t.Errorf("selected b opacity = %v, want 1", b.Opacity)
	}
	dn, _ := c.Snapshot().Node("d")
	if dn.Opacity >= 1 {
		t.Errorf("d opacity = %v, want dimmed", dn.Opacity)
	}

	c.Hover("")
	if got := highlighted(); len(got) != 0 {
		t.Errorf("highlighted after leave = %v", got)
	}
	hovers := rec.of(events.KindNodeHovered)
	if last := hovers[len(hovers)-1].(events.NodeHovered); last.ID != "" {
		t.Errorf("last hover = %q, want empty", last.ID)
	}
}

func TestZoomAlwaysEmitted(t *testing.T) {
	c, _, rec := setup(t, scenario, false)

	c.Zoom(10)
	c.Zoom(10)
	c.Zoom(0.5)
	var scales []float64
	for _, e := range rec.of(events.KindZoomChanged) {
		scales = append(scales, e.(events.ZoomChanged).Scale)
	}
	if !slices.Equal(scales, []float64{render.MaxZoom, render.MaxZoom, 0.5}) {
		t.Errorf("zoom events = %v", scales)
	}
	if c.State().Zoom != 0.5 {
		t.Errorf("state zoom = %v", c.State().Zoom)
	}
}

func TestDrag(t *testing.T) {
	c, _, _ := setup(t, scenario, false)

	c.Drag("a", 10, 20)
	a, _ := c.Data().Node("a")
	if a.X != 10 || a.Y != 20 || a.Fixed {
		t.Errorf("a = (%v,%v) fixed=%v, want (10,20) released", a.X, a.Y, a.Fixed)
	}
	if !c.Layout().Running() {
		t.Error("drag did not reheat the layout")
	}
}

func TestStabilization(t *testing.T) {
	c, l, rec := setup(t, scenario, false)

	if !c.State().Stabilizing {
		t.Fatal("layout not running after UpdateData")
	}
	if !l.StepUntil(func() bool { return !c.Layout().Running() }, 1000) {
		t.Fatal("layout did not settle")
	}
	l.Advance(time.Second)

	if n := len(rec.of(events.KindStabilizationComplete)); n != 1 {
		t.Errorf("%d completion events, want 1", n)
	}
	progress := rec.of(events.KindStabilizationProgress)
	if len(progress) != c.Layout().Ticks() {
		t.Errorf("%d progress events for %d ticks", len(progress), c.Layout().Ticks())
	}
	for _, n := range c.Snapshot().Nodes {
		if !n.HasPos || math.IsNaN(n.X) {
			t.Errorf("node %s has no position", n.ID)
		}
	}
}

func TestUpdateDataKeepsPositions(t *testing.T) {
	c, l, _ := setup(t, scenario, false)
	l.Advance(time.Second)

	a, _ := c.Data().Node("a")
	x, y := a.X, a.Y
	c.Click("a")

	c.UpdateData(context.Background(), scenario)
	a2, _ := c.Data().Node("a")
	if a2 == a {
		t.Fatal("processed nodes were reused")
	}
	if a2.X != x || a2.Y != y {
		t.Errorf("a moved to (%v,%v), want (%v,%v)", a2.X, a2.Y, x, y)
	}
	if !slices.Equal(c.Selected(), []string{"a"}) {
		t.Errorf("selection lost across update: %v", c.Selected())
	}
}

type growing struct{ calls, readyAfter int }

func (g *growing) Size() (float64, float64) {
	g.calls++
	if g.calls > g.readyAfter {
		return 640, 480
	}
	return 0, 0
}

func TestUpdateDataKeepsGeneratedColors(t *testing.T) {
	d := graph.Dataset{
		Nodes: []graph.Node{{ID: "x", Label: "X"}, {ID: "y", Label: "Y"}},
		Edges: []graph.Edge{{From: "x", To: "y"}},
	}
	c, l, _ := setup(t, d, true)
	x, _ := c.Data().Node("x")
	y, _ := c.Data().Node("y")

	c.Click("x")
	idle(t, c, l)
	selColor := c.SelectionColor()

	if f := c.UpdateData(context.Background(), d); f.Err() != nil {
		t.Fatalf("UpdateData: %v", f.Err())
	}
	x2, _ := c.Data().Node("x")
	y2, _ := c.Data().Node("y")
	if x2.Color != x.Color || y2.Color != y.Color {
		t.Errorf("colors regenerated: x %s->%s, y %s->%s", x.Color, x2.Color, y.Color, y2.Color)
	}
	if !slices.Equal(c.Selected(), []string{"x"}) || c.SelectionColor() != selColor {
		t.Errorf("selection = %v color=%s, want [x] %s", c.Selected(), c.SelectionColor(), selColor)
	}
	for _, id := range []string{"x", "y"} {
		if got := fill(t, c, id); got != selColor {
			t.Errorf("%s fill = %s after update, want selection color %s", id, got, selColor)
		}
	}

	// An explicit color in the new data still wins.
	d.Nodes = slices.Clone(d.Nodes)
	d.Nodes[1].Color = "#abcdef"
	c.UpdateData(context.Background(), d)
	if got := fill(t, c, "y"); got != "#abcdef" {
		t.Errorf("y fill = %s, want explicit #abcdef", got)
	}
}

func TestUpdateDataBusy(t *testing.T) {
	l := loop.New(0)
	c := New(l, config.Default(), WithLogger(quiet()), WithContainer(&growing{readyAfter: 2}))

	first := c.UpdateData(context.Background(), scenario)
	if first.Done() {
		t.Fatal("first update finished before the container had a size")
	}
	second := c.UpdateData(context.Background(), scenario)
	if !errors.Is(second.Err(), errors.ErrCodeBusy) {
		t.Errorf("second update err = %v, want BUSY", second.Err())
	}

	l.Advance(time.Second)
	if !first.Done() || first.Err() != nil {
		t.Fatalf("first update: done=%v err=%v", first.Done(), first.Err())
	}
	if w, h := c.Renderer().Size(); w != 640 || h != 480 {
		t.Errorf("surface = %vx%v", w, h)
	}
	if c.State().Nodes != 3 {
		t.Errorf("nodes = %d, want 3", c.State().Nodes)
	}
}

func TestCleanup(t *testing.T) {
	c, l, _ := setup(t, scenario, true)
	c.Click("a")
	c.Click("b")

	c.Cleanup()
	c.Cleanup()

	for _, k := range events.Kinds {
		if c.Bus().Count(k) != 0 {
			t.Errorf("%s still has subscribers", k)
		}
	}
	if c.Initialized() || c.Transitioning() || len(c.Pending()) != 0 || len(c.Selected()) != 0 {
		t.Errorf("state not reset: %+v", c.State())
	}

	rec := &recorder{}
	rec.listen(c)
	l.Advance(2 * time.Second)
	if len(rec.events) != 0 {
		t.Errorf("events after cleanup: %v", rec.events)
	}
	if l.Pending() != 0 {
		t.Errorf("%d timers left after cleanup", l.Pending())
	}

	if f := c.UpdateData(context.Background(), scenario); f.Err() != nil {
		t.Fatalf("UpdateData after cleanup: %v", f.Err())
	}
	c.Click("c")
	idle(t, c, l)
	if got := fill(t, c, "c"); got != "#0000ff" {
		t.Errorf("c fill = %s", got)
	}
}

func TestBridge(t *testing.T) {
	host := bridge.NewRecorder(0)
	c, l, _ := setup(t, scenario, false, WithConnector(host))

	if c.Host() == nil {
		t.Fatal("no host connected")
	}
	c.Click("a")
	c.Zoom(2)
	idle(t, c, l)

	methods := host.Methods()
	if methods[0] != bridge.MethodDebugLog {
		t.Errorf("first host call = %s, want debugLog", methods[0])
	}
	for _, want := range []string{"nodeSelected", "zoomChanged", "colorFlowStarted", "colorFlowComplete", "stabilizationProgress"} {
		if !slices.Contains(methods, want) {
			t.Errorf("host never received %s", want)
		}
	}

	c.Cleanup()
	if c.Host() != nil {
		t.Error("host still attached after cleanup")
	}
}

func TestBridgeHandshakeFailure(t *testing.T) {
	l := loop.New(0)
	cfg := config.Default()
	cfg.Bridge.Timeout = config.Duration(20 * time.Millisecond)
	never := bridge.ConnectorFunc(func(ctx context.Context) (bridge.Host, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c := New(l, cfg, WithLogger(quiet()), WithConnector(never))
	rec := &recorder{}
	rec.listen(c)

	f := c.Initialize(context.Background(), nil)
	await(t, l, f)
	if !errors.Is(f.Err(), errors.ErrCodeBridge) {
		t.Fatalf("err = %v, want BRIDGE_ERROR", f.Err())
	}
	if c.Initialized() {
		t.Error("initialized despite failed handshake")
	}
	errs := rec.of(events.KindError)
	if len(errs) != 1 || errs[0].(events.Error).Code != string(errors.ErrCodeBridge) {
		t.Errorf("error events = %v", errs)
	}
}

func TestInitializationErrorReachesHost(t *testing.T) {
	l := loop.New(0)
	host := bridge.NewRecorder(0)
	c := New(l, config.Default(), WithLogger(quiet()), WithConnector(host))

	f := c.Initialize(context.Background(), &growing{readyAfter: math.MaxInt})
	waitFor(t, l, func() bool { return c.Host() != nil })
	l.Advance(5 * time.Second)
	if !errors.Is(f.Err(), errors.ErrCodeInitialization) {
		t.Fatalf("err = %v, want INITIALIZATION_ERROR", f.Err())
	}
	if !slices.Contains(host.Methods(), bridge.MethodHandleError) {
		t.Errorf("host calls = %v, want handleError", host.Methods())
	}
}

func TestCleanupCancelsHandshake(t *testing.T) {
	l := loop.New(0)
	cfg := config.Default()
	cfg.Bridge.Timeout = config.Duration(time.Minute)
	aborted := make(chan error, 1)
	blocking := bridge.ConnectorFunc(func(ctx context.Context) (bridge.Host, error) {
		<-ctx.Done()
		aborted <- ctx.Err()
		return nil, ctx.Err()
	})
	c := New(l, cfg, WithLogger(quiet()), WithConnector(blocking))

	f := c.Initialize(context.Background(), nil)
	if f.Done() {
		t.Fatal("Initialize resolved before the host answered")
	}
	c.Cleanup()
	if !errors.Is(f.Err(), errors.ErrCodeInitialization) {
		t.Errorf("err = %v, want INITIALIZATION_ERROR", f.Err())
	}

	select {
	case err := <-aborted:
		if err != context.Canceled {
			t.Errorf("connector saw %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Cleanup did not cancel the handshake")
	}

	// The late handshake result is dropped.
	rec := &recorder{}
	rec.listen(c)
	time.Sleep(20 * time.Millisecond)
	l.Flush()
	if len(rec.events) != 0 || c.Host() != nil || c.Initialized() {
		t.Errorf("late handshake leaked: events=%v host=%v", rec.events, c.Host())
	}
}
