package layout

import (
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/loop"
	"github.com/matzehuels/flowgraph/pkg/process"
)

// State is the run state of the simulation.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithSize sets the canvas size used for centering and initial placement.
func WithSize(w, h float64) Option { return func(e *Engine) { e.width, e.height = w, h } }

// WithSeed makes coincident-node jiggle deterministic.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// OnTick registers the per-tick callback, run after positions update.
func OnTick(fn func()) Option { return func(e *Engine) { e.onTick = fn } }

// OnProgress registers the progress callback, run after OnTick with
// round(100*tick/MaxTicks).
func OnProgress(fn func(percent int)) Option { return func(e *Engine) { e.onProgress = fn } }

// OnComplete registers the completion callback, run exactly once per run
// that ends by convergence or by reaching MaxTicks.
func OnComplete(fn func(ticks int)) Option { return func(e *Engine) { e.onComplete = fn } }

// Engine is an iterative force-directed position solver. It runs one tick
// per scheduler frame while Running and is not safe for concurrent use.
type Engine struct {
	sched  loop.Scheduler
	p      Params
	logger *log.Logger
	rnd    *rand.Rand

	width, height float64

	nodes    []*process.Node
	edges    []*process.Edge
	index    map[string]int
	strength []float64

	state  State
	alpha  float64
	ticks  int
	cancel loop.Cancel

	onTick     func()
	onProgress func(int)
	onComplete func(int)
}

// New creates an idle engine driven by sched. A nil scheduler is allowed
// for engines only ever run with Settle.
func New(sched loop.Scheduler, p Params, opts ...Option) *Engine {
	e := &Engine{
		sched:  sched,
		p:      p,
		logger: log.Default(),
		rnd:    rand.New(rand.NewPCG(1, 2)),
		width:  800,
		height: 600,
		index:  map[string]int{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetSize updates the canvas size.
func (e *Engine) SetSize(w, h float64) { e.width, e.height = w, h }

// SetData replaces the simulated nodes and edges and spreads the nodes
// evenly on a circle of radius min(w,h)/4 around the center. It does not
// start a run; a running simulation keeps running on the new data.
func (e *Engine) SetData(nodes []*process.Node, edges []*process.Edge) {
	e.nodes, e.edges = nodes, edges
	e.index = make(map[string]int, len(nodes))
	e.strength = make([]float64, len(nodes))

	cx, cy := e.width/2, e.height/2
	r := math.Min(e.width, e.height) / 4
	for i, n := range nodes {
		e.index[n.ID] = i
		e.strength[i] = e.p.Repulsion * math.Pow(1+float64(n.Degree), e.p.HubExponent)

		theta := 2 * math.Pi * float64(i) / float64(len(nodes))
		n.X, n.Y = cx+r*math.Cos(theta), cy+r*math.Sin(theta)
		n.VX, n.VY = 0, 0
		n.Fixed = false
	}
}

// Place moves nodes to known positions, e.g. a cached layout. Unknown ids
// are ignored. Reports how many nodes were placed.
func (e *Engine) Place(positions map[string][2]float64) int {
	placed := 0
	for _, n := range e.nodes {
		if p, ok := positions[n.ID]; ok {
			n.X, n.Y = p[0], p[1]
			n.VX, n.VY = 0, 0
			placed++
		}
	}
	return placed
}

// Restart starts a new run at full energy from the current positions.
func (e *Engine) Restart() {
	e.start(1)
}

// Reheat raises the energy to at least alpha. An idle engine starts a new
// run from the current positions; a running one keeps its tick count.
func (e *Engine) Reheat(alpha float64) {
	if e.state == Running {
		e.alpha = math.Max(e.alpha, alpha)
		return
	}
	e.start(alpha)
}

func (e *Engine) start(alpha float64) {
	e.alpha = alpha
	e.ticks = 0
	if e.state == Running {
		return
	}
	e.state = Running
	if e.sched != nil {
		e.cancel = e.sched.OnFrame(func() { e.Tick() })
	}
}

// Stop halts a run immediately. Positions keep their last solved values and
// no completion is reported.
func (e *Engine) Stop() {
	if e.state != Running {
		return
	}
	e.halt()
}

func (e *Engine) halt() {
	e.state = Idle
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// Tick advances a running simulation by one step. It is normally driven by
// the scheduler; calling it while idle does nothing. Reports whether the
// run continues.
func (e *Engine) Tick() bool {
	if e.state != Running {
		return false
	}

	e.alpha += (0 - e.alpha) * e.p.AlphaDecay

	live := make([]int, 0, len(e.nodes))
	ok := make([]bool, len(e.nodes))
	for i, n := range e.nodes {
		if !n.Positioned() || math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			e.logger.Debug("skipping node without position", "id", n.ID)
			continue
		}
		live = append(live, i)
		ok[i] = true
	}

	e.link(ok)
	e.repulse(live)
	e.center(live)
	e.collide(live)
	e.integrate(live)

	e.ticks++
	if e.onTick != nil {
		e.onTick()
	}
	if e.onProgress != nil {
		e.onProgress(e.Progress())
	}

	if e.alpha < e.p.AlphaMin || e.ticks >= e.p.MaxTicks {
		e.halt()
		e.logger.Debug("layout settled", "ticks", e.ticks, "alpha", e.alpha)
		if e.onComplete != nil {
			e.onComplete(e.ticks)
		}
		return false
	}
	return true
}

// Settle runs the simulation synchronously until it stops, without the
// scheduler. Returns the number of ticks run.
func (e *Engine) Settle() int {
	if e.state != Running {
		e.Restart()
	}
	for e.Tick() {
	}
	return e.ticks
}

// FixNode pins a node at its current position.
func (e *Engine) FixNode(id string) {
	if n := e.node(id); n != nil {
		n.Fixed = true
		n.FX, n.FY = n.X, n.Y
	}
}

// UnfixNode releases a pinned node.
func (e *Engine) UnfixNode(id string) {
	if n := e.node(id); n != nil {
		n.Fixed = false
	}
}

// DragTo moves a pinned node. Non-finite coordinates are ignored.
func (e *Engine) DragTo(id string, x, y float64) {
	n := e.node(id)
	if n == nil || math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	n.FX, n.FY = x, y
	n.X, n.Y = x, y
}

// Scale multiplies every node's offset from the canvas center by f.
func (e *Engine) Scale(f float64) {
	cx, cy := e.width/2, e.height/2
	for _, n := range e.nodes {
		n.X = cx + (n.X-cx)*f
		n.Y = cy + (n.Y-cy)*f
		n.FX = cx + (n.FX-cx)*f
		n.FY = cy + (n.FY-cy)*f
	}
}

func (e *Engine) node(id string) *process.Node {
	i, ok := e.index[id]
	if !ok {
		return nil
	}
	return e.nodes[i]
}

// State returns the run state.
func (e *Engine) State() State { return e.state }

// Running reports whether a run is in progress.
func (e *Engine) Running() bool { return e.state == Running }

// Alpha returns the current energy.
func (e *Engine) Alpha() float64 { return e.alpha }

// Ticks returns the tick count of the current or last run.
func (e *Engine) Ticks() int { return e.ticks }

// Progress returns round(100*ticks/MaxTicks), capped at 100.
func (e *Engine) Progress() int {
	return min(100, int(math.Round(100*float64(e.ticks)/float64(e.p.MaxTicks))))
}

// Params returns the simulation parameters.
func (e *Engine) Params() Params { return e.p }

// Nodes returns the simulated nodes.
func (e *Engine) Nodes() []*process.Node { return e.nodes }
