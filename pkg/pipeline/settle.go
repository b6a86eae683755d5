package pipeline

import (
	"context"

	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/layout"
	"github.com/matzehuels/flowgraph/pkg/process"
)

// =============================================================================
// Layout Settling
// =============================================================================

// Settle runs the force simulation on res to convergence without a
// scheduler and returns the solved positions. Node positions in res are
// updated in place.
func Settle(res *process.Result, opts Options) graph.Layout {
	opts.SetLayoutDefaults()
	e := newEngine(res, opts)
	ticks := e.Settle()
	opts.Logger.Debug("layout settled", "ticks", ticks, "alpha", e.Alpha())
	return exportLayout(res, opts, ticks)
}

// Apply moves the nodes of res to the positions of a settled layout.
// Reports whether every node had a position.
func Apply(res *process.Result, l graph.Layout, opts Options) bool {
	opts.SetLayoutDefaults()
	e := newEngine(res, opts)
	pos := make(map[string][2]float64, len(l.Nodes))
	for _, p := range l.Nodes {
		pos[p.ID] = [2]float64{p.X, p.Y}
	}
	return e.Place(pos) == len(res.Nodes)
}

func newEngine(res *process.Result, opts Options) *layout.Engine {
	engineOpts := []layout.Option{
		layout.WithLogger(opts.Logger),
		layout.WithSize(opts.Width, opts.Height),
		layout.WithSeed(opts.Seed),
	}
	if opts.Progress != nil {
		engineOpts = append(engineOpts, layout.OnProgress(opts.Progress))
	}
	e := layout.New(nil, opts.Params(), engineOpts...)
	e.SetData(res.Nodes, res.Edges)
	return e
}

func exportLayout(res *process.Result, opts Options, ticks int) graph.Layout {
	l := graph.Layout{
		Width:  opts.Width,
		Height: opts.Height,
		Ticks:  ticks,
		Nodes:  make([]graph.Position, 0, len(res.Nodes)),
	}
	for _, n := range res.Nodes {
		if !n.Positioned() {
			continue
		}
		l.Nodes = append(l.Nodes, graph.Position{ID: n.ID, X: n.X, Y: n.Y})
	}
	return l
}

// SettleContext is Settle with an early exit when ctx is already done.
func SettleContext(ctx context.Context, res *process.Result, opts Options) (graph.Layout, error) {
	if err := ctx.Err(); err != nil {
		return graph.Layout{}, err
	}
	return Settle(res, opts), nil
}
