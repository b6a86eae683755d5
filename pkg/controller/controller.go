// Package controller ties the engine together: it owns the selection state
// machine and the serialized color-flow queue, and exposes the public
// lifecycle (Initialize, UpdateData, Cleanup).
//
// A Controller is constructed explicitly and handed to whichever host
// drives it; there is no process-wide instance. All methods must be called
// from the goroutine that drives the scheduler.
//
//	l := loop.New(loop.DefaultFrame)
//	c := controller.New(l, cfg, controller.WithLogger(logger))
//	c.On(events.KindNodeSelected, func(e events.Event) { ... })
//	c.UpdateData(ctx, dataset)
//	go l.Run(ctx)
package controller

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/flowgraph/pkg/bridge"
	"github.com/matzehuels/flowgraph/pkg/config"
	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/events"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/layout"
	"github.com/matzehuels/flowgraph/pkg/loop"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/process"
	"github.com/matzehuels/flowgraph/pkg/render"
)

// dragAlpha is the energy a drag keeps the simulation at so neighbors
// follow the dragged node.
const dragAlpha = 0.3

// Scheduler is the loop a Controller runs on. Post must be safe for
// concurrent use; the bridge handshake reports back through it.
type Scheduler interface {
	loop.Scheduler
	Post(fn func())
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLogger sets the logger shared by every component.
func WithLogger(l *log.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithBus uses an existing event bus instead of a private one.
func WithBus(b *events.Bus) Option { return func(c *Controller) { c.bus = b } }

// WithContainer sets the surface UpdateData initializes against when
// Initialize was not called. Defaults to the configured container size.
func WithContainer(ct render.Container) Option { return func(c *Controller) { c.container = ct } }

// WithConnector makes Initialize perform a bridge handshake and forward
// every event to the connected host.
func WithConnector(conn bridge.Connector) Option { return func(c *Controller) { c.connector = conn } }

// WithBridgeHooks sets the bridge observability hooks.
func WithBridgeHooks(h observability.BridgeHooks) Option {
	return func(c *Controller) { c.bridgeHooks = h }
}

// WithSeed makes generated colors and layout jiggle deterministic.
func WithSeed(seed uint64) Option {
	return func(c *Controller) {
		c.rnd = rand.New(rand.NewPCG(seed, seed+1))
		c.seed = &seed
	}
}

// Controller orchestrates processing, layout, rendering and selection.
type Controller struct {
	id     string
	sched  Scheduler
	cfg    config.Config
	logger *log.Logger
	bus    *events.Bus
	rnd    process.Rand
	seed   *uint64

	renderer *render.Renderer
	engine   *layout.Engine

	container   render.Container
	connector   bridge.Connector
	bridgeHooks observability.BridgeHooks
	host        bridge.Host
	detach      func()

	initialized bool
	initFuture  *loop.Future
	// cancelHandshake aborts a bridge handshake still waiting for its host.
	cancelHandshake context.CancelFunc
	updating        bool
	data            *process.Result

	sel   selection
	queue []Transition
	// current is the transition in flight; nil when the queue is idle.
	current *Transition
	// gen invalidates transition callbacks that outlive a Cleanup.
	gen uint64

	hovered string
	zoom    float64
}

// New creates a controller scheduled on sched. Components are created
// immediately; the drawing surface is allocated by Initialize.
func New(sched Scheduler, cfg config.Config, opts ...Option) *Controller {
	c := &Controller{
		id:          uuid.NewString(),
		sched:       sched,
		cfg:         cfg,
		logger:      log.Default(),
		bridgeHooks: observability.NoopBridgeHooks{},
		zoom:        1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = events.NewBus(c.logger)
	}
	if c.container == nil {
		c.container = render.Size{W: cfg.Container.Width, H: cfg.Container.Height}
	}
	c.logger = c.logger.With("controller", c.id[:8])

	c.renderer = render.New(sched,
		render.WithLogger(c.logger),
		render.WithTheme(cfg.Theme),
		render.WithDuration(cfg.Animation.Duration.D()),
		render.WithStaggerDelay(cfg.Animation.StaggerDelay.D()),
		render.WithDimOthers(cfg.Selection.DimOthers),
		render.WithHopColor(c.hopColor),
		render.WithPolling(cfg.Container.PollAttempts, cfg.Container.PollInterval.D()),
	)
	c.renderer.SetHandlers(render.Handlers{
		NodeClick:       c.Click,
		BackgroundClick: c.BackgroundClick,
		Hover:           c.Hover,
		DragStart:       c.dragStart,
		Drag:            c.drag,
		DragEnd:         c.dragEnd,
		Zoom:            c.zoomed,
	})

	engineOpts := []layout.Option{
		layout.WithLogger(c.logger),
		layout.WithSize(cfg.Container.Width, cfg.Container.Height),
		layout.OnTick(c.renderer.UpdatePositions),
		layout.OnProgress(func(p int) { c.bus.Emit(events.StabilizationProgress{Percent: p}) }),
		layout.OnComplete(func(ticks int) { c.bus.Emit(events.StabilizationComplete{Ticks: ticks}) }),
	}
	if c.seed != nil {
		engineOpts = append(engineOpts, layout.WithSeed(*c.seed))
	}
	c.engine = layout.New(sched, cfg.Layout, engineOpts...)
	c.sel = newSelection()
	return c
}

// =============================================================================
// Lifecycle
// =============================================================================

// Initialize connects the bridge host, when a connector is configured, and
// allocates the drawing surface. The handshake runs off the scheduler for
// at most the configured bridge timeout and Cleanup cancels it; surface
// allocation completes on the scheduler. Failures are INITIALIZATION_ERROR
// or BRIDGE_ERROR and are reported to the host when one is connected,
// otherwise logged.
func (c *Controller) Initialize(ctx context.Context, ct render.Container) *loop.Future {
	if c.initialized {
		return loop.Resolved(nil)
	}
	if c.initFuture != nil && !c.initFuture.Done() {
		return c.initFuture
	}
	if ct != nil {
		c.container = ct
	}

	f := loop.NewFuture()
	c.initFuture = f
	if c.connector != nil && c.host == nil {
		c.connect(ctx, f)
	} else {
		c.mount(ctx, f)
	}
	return f
}

// connect waits for the bridge host on its own goroutine and continues on
// the scheduler. Results that arrive after a Cleanup are dropped.
func (c *Controller) connect(ctx context.Context, f *loop.Future) {
	hctx, cancel := context.WithCancel(ctx)
	c.cancelHandshake = cancel
	gen := c.gen
	conn, timeout, hooks := c.connector, c.cfg.Bridge.Timeout.D(), c.bridgeHooks

	go func() {
		host, err := bridge.Handshake(hctx, conn, timeout, hooks)
		c.sched.Post(func() {
			cancel()
			if gen != c.gen {
				return
			}
			c.cancelHandshake = nil
			if err != nil {
				c.report(err)
				f.Resolve(err)
				return
			}
			c.host = host
			c.detach = bridge.Forward(c.bus, host, c.bridgeHooks)
			host.DebugLog("controller " + c.id + " connected")
			c.mount(ctx, f)
		})
	}()
}

func (c *Controller) mount(ctx context.Context, f *loop.Future) {
	c.renderer.Initialize(ctx, c.container).Then(func(err error) {
		if err != nil {
			c.report(err)
			f.Resolve(err)
			return
		}
		w, h := c.renderer.Size()
		c.engine.SetSize(w, h)
		c.initialized = true
		c.logger.Debug("initialized", "width", w, "height", h)
		f.Resolve(nil)
	})
}

// UpdateData replaces the graph. It initializes first when needed, then
// stops the layout, processes the records, reconciles the scene and
// restarts the simulation at full energy. Retained nodes keep their
// positions. A call made while another update is still in flight fails
// with BUSY and changes nothing.
func (c *Controller) UpdateData(ctx context.Context, d graph.Dataset) *loop.Future {
	if c.updating {
		c.logger.Warn("update rejected: previous update still in flight")
		return loop.Resolved(errors.New(errors.ErrCodeBusy, "update already in progress"))
	}
	c.updating = true
	gen := c.gen

	f := loop.NewFuture()
	c.Initialize(ctx, nil).Then(func(err error) {
		c.updating = false
		if err == nil && gen != c.gen {
			err = errors.New(errors.ErrCodeInitialization, "controller cleaned up during update")
		}
		if err != nil {
			f.Resolve(err)
			return
		}
		c.apply(d)
		f.Resolve(nil)
	})
	return f
}

func (c *Controller) apply(d graph.Dataset) {
	start := time.Now()
	c.engine.Stop()

	prev := map[string][2]float64{}
	if c.data != nil {
		for _, n := range c.data.Nodes {
			if n.Positioned() {
				prev[n.ID] = [2]float64{n.X, n.Y}
			}
		}
	}

	res := process.Process(c.keepColors(d), process.Options{Rand: c.rnd})
	for _, is := range res.Issues {
		c.logger.Warn("invalid record", "issue", is.String())
	}
	c.data = res

	c.renderer.UpdateElements(res.Nodes, res.Edges)
	c.engine.SetData(res.Nodes, res.Edges)
	kept := c.engine.Place(prev)
	c.renderer.UpdatePositions()
	c.engine.Restart()

	c.logger.Debug("data updated",
		"nodes", len(res.Nodes), "edges", len(res.Edges), "issues", len(res.Issues),
		"kept", kept, "took", time.Since(start))
}

// keepColors gives nodes without an explicit color the color they were
// shown with before, so an update does not repaint retained nodes.
func (c *Controller) keepColors(d graph.Dataset) graph.Dataset {
	if c.data == nil {
		return d
	}
	d.Nodes = slices.Clone(d.Nodes)
	for i, n := range d.Nodes {
		if n.Color != "" {
			continue
		}
		if prev, ok := c.data.Node(n.ID); ok {
			d.Nodes[i].Color = prev.Color
		}
	}
	return d
}

// Cleanup cancels a pending bridge handshake, stops the layout, drops
// queued transitions, destroys the scene, detaches the host and clears
// every subscription and selection. It is
// safe to call repeatedly; Initialize may be called again afterwards.
func (c *Controller) Cleanup() {
	c.gen++
	if c.cancelHandshake != nil {
		c.cancelHandshake()
		c.cancelHandshake = nil
	}
	if c.initFuture != nil {
		c.initFuture.Resolve(errors.New(errors.ErrCodeInitialization, "controller cleaned up"))
	}
	c.engine.Stop()
	c.engine.SetData(nil, nil)

	c.queue = nil
	c.current = nil
	c.renderer.Destroy()

	if c.detach != nil {
		c.detach()
		c.detach = nil
	}
	c.host = nil
	c.bus.Cleanup()

	c.sel = newSelection()
	c.data = nil
	c.hovered = ""
	c.zoom = 1
	c.initialized = false
	c.initFuture = nil
	c.updating = false
}

// report publishes an engine error: through the event bus, which reaches a
// connected host as HandleError, and to the local log otherwise.
func (c *Controller) report(err error) {
	code := errors.GetCode(err)
	if c.host == nil {
		c.logger.Error("engine error", "code", code, "err", err)
	}
	c.bus.Emit(events.Error{Code: string(code), Message: errors.UserMessage(err)})
}

// =============================================================================
// Events
// =============================================================================

// On registers a handler for an event kind.
func (c *Controller) On(kind events.Kind, fn events.Handler) events.Subscription {
	return c.bus.On(kind, fn)
}

// Off removes a handler registered with On.
func (c *Controller) Off(sub events.Subscription) bool { return c.bus.Off(sub) }

// Bus returns the event bus.
func (c *Controller) Bus() *events.Bus { return c.bus }

// =============================================================================
// Accessors
// =============================================================================

// ID returns the controller's instance id.
func (c *Controller) ID() string { return c.id }

// Initialized reports whether the surface is allocated.
func (c *Controller) Initialized() bool { return c.initialized }

// Data returns the processed graph of the last update, or nil.
func (c *Controller) Data() *process.Result { return c.data }

// Renderer returns the renderer.
func (c *Controller) Renderer() *render.Renderer { return c.renderer }

// Layout returns the layout engine.
func (c *Controller) Layout() *layout.Engine { return c.engine }

// Snapshot returns the current scene.
func (c *Controller) Snapshot() render.Scene { return c.renderer.Snapshot() }

// Host returns the connected bridge host, or nil.
func (c *Controller) Host() bridge.Host { return c.host }

// Config returns the configuration the controller was built with.
func (c *Controller) Config() config.Config { return c.cfg }
