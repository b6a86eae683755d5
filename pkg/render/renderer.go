package render

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/loop"
	"github.com/matzehuels/flowgraph/pkg/process"
)

// Container is the surface the renderer draws into. A zero size means the
// container has not been laid out yet.
type Container interface {
	Size() (w, h float64)
}

// Size is a [Container] with a fixed size.
type Size struct{ W, H float64 }

// Size implements [Container].
func (s Size) Size() (float64, float64) { return s.W, s.H }

// Option configures a [Renderer].
type Option func(*Renderer)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option { return func(r *Renderer) { r.logger = l } }

// WithTheme sets the visual constants.
func WithTheme(t Theme) Option { return func(r *Renderer) { r.theme = t } }

// WithDuration sets the color-flow step duration.
func WithDuration(d time.Duration) Option { return func(r *Renderer) { r.duration = d } }

// WithStaggerDelay adds a pause between wave hops.
func WithStaggerDelay(d time.Duration) Option { return func(r *Renderer) { r.stagger = d } }

// WithHopColor sets how a wave hop picks its color. fn runs when the hop
// starts; an empty result keeps the wave's target.
func WithHopColor(fn func(Hop) string) Option { return func(r *Renderer) { r.hopColor = fn } }

// WithDimOthers controls whether highlighting dims non-highlighted elements.
func WithDimOthers(dim bool) Option { return func(r *Renderer) { r.dimOthers = dim } }

// WithPolling sets how often and how long Initialize waits for a container
// to report a non-zero size.
func WithPolling(attempts int, interval time.Duration) Option {
	return func(r *Renderer) { r.pollAttempts, r.pollInterval = attempts, interval }
}

// Renderer owns the retained visual elements for one graph: one element per
// node and edge id, reconciled against processed data, plus the pan/zoom
// transform and color-flow animations. It runs on the scheduler goroutine
// and is not safe for concurrent use.
type Renderer struct {
	sched  loop.Scheduler
	logger *log.Logger
	theme  Theme

	duration     time.Duration
	stagger      time.Duration
	hopColor     func(Hop) string
	dimOthers    bool
	pollAttempts int
	pollInterval time.Duration

	ready         bool
	width, height float64
	transform     Transform
	layers        []string
	pollCancel    loop.Cancel

	serial    uint64
	nodes     []*NodeElement
	nodeIndex map[string]*NodeElement
	edges     []*EdgeElement
	edgeIndex map[string]*EdgeElement
	incident  map[string][]*EdgeElement
	sources   map[string]*process.Node

	handlers Handlers
	pointer  pointerState

	tweens    map[string]*tween
	tweenHook loop.Cancel
	waves     []*wave
	inflight  map[*loop.Future]loop.Cancel
}

// New creates an uninitialized renderer driven by sched.
func New(sched loop.Scheduler, opts ...Option) *Renderer {
	r := &Renderer{
		sched:        sched,
		logger:       log.Default(),
		theme:        DefaultTheme(),
		duration:     DefaultDuration,
		dimOthers:    true,
		pollAttempts: DefaultPollAttempts,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reset()
	return r
}

func (r *Renderer) reset() {
	r.ready = false
	r.width, r.height = 0, 0
	r.transform = Identity
	r.layers = nil
	r.nodes, r.edges = nil, nil
	r.nodeIndex = map[string]*NodeElement{}
	r.edgeIndex = map[string]*EdgeElement{}
	r.incident = map[string][]*EdgeElement{}
	r.sources = map[string]*process.Node{}
	r.tweens = map[string]*tween{}
	r.inflight = map[*loop.Future]loop.Cancel{}
	r.waves = nil
	r.pointer = pointerState{}
}

// =============================================================================
// Lifecycle
// =============================================================================

// Initialize allocates the drawing surface once the container reports a
// non-zero size. The size is read immediately and then re-polled on the
// scheduler; the returned future fails with INITIALIZATION_ERROR for a nil
// container, when polling runs out, or when ctx is done first.
func (r *Renderer) Initialize(ctx context.Context, c Container) *loop.Future {
	if c == nil {
		return loop.Resolved(errors.New(errors.ErrCodeInitialization, "no container"))
	}
	if r.ready {
		return loop.Resolved(nil)
	}
	r.cancelPoll()

	f := loop.NewFuture()
	attempts := max(r.pollAttempts, 1)
	tried := 0
	var poll func()
	poll = func() {
		r.pollCancel = nil
		if err := ctx.Err(); err != nil {
			f.Resolve(errors.Wrap(errors.ErrCodeInitialization, err, "initialize cancelled"))
			return
		}
		w, h := c.Size()
		if w > 0 && h > 0 {
			r.mount(w, h)
			f.Resolve(nil)
			return
		}
		tried++
		if tried >= attempts {
			f.Resolve(errors.New(errors.ErrCodeInitialization,
				"container has zero size after %d attempts", attempts))
			return
		}
		r.logger.Debug("waiting for container size", "attempt", tried)
		r.pollCancel = r.sched.After(r.pollInterval, poll)
	}
	poll()
	return f
}

func (r *Renderer) mount(w, h float64) {
	r.width, r.height = w, h
	r.layers = []string{LayerBackground, LayerEdges, LayerNodes}
	r.transform = Identity
	r.ready = true
	r.logger.Debug("renderer ready", "width", w, "height", h)
}

func (r *Renderer) cancelPoll() {
	if r.pollCancel != nil {
		r.pollCancel()
		r.pollCancel = nil
	}
}

// Ready reports whether Initialize has succeeded.
func (r *Renderer) Ready() bool { return r.ready }

// Size returns the surface size.
func (r *Renderer) Size() (w, h float64) { return r.width, r.height }

// Resize changes the surface size of an initialized renderer.
func (r *Renderer) Resize(w, h float64) {
	if w > 0 && h > 0 {
		r.width, r.height = w, h
	}
}

// Layers returns the layer names in draw order.
func (r *Renderer) Layers() []string { return append([]string(nil), r.layers...) }

// Destroy releases every element and cancels polling, animation frames and
// waves. Unresolved animation futures fail with TRANSITION_ERROR. The
// renderer can be initialized again afterwards.
func (r *Renderer) Destroy() {
	r.cancelPoll()
	r.CancelWaves()
	r.stopTweens()
	pending := r.inflight
	r.inflight = map[*loop.Future]loop.Cancel{}
	for f, cancel := range pending {
		cancel()
		f.Resolve(errors.New(errors.ErrCodeTransition, "renderer destroyed"))
	}
	r.reset()
}

// =============================================================================
// Reconciliation
// =============================================================================

// Diff compares two id lists. Added and retained follow the order of next;
// removed follows the order of prev.
func Diff(prev, next []string) (added, retained, removed []string) {
	old := make(map[string]bool, len(prev))
	for _, id := range prev {
		old[id] = true
	}
	cur := make(map[string]bool, len(next))
	for _, id := range next {
		cur[id] = true
		if old[id] {
			retained = append(retained, id)
		} else {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if !cur[id] {
			removed = append(removed, id)
		}
	}
	return added, retained, removed
}

// UpdateElements reconciles the retained elements against processed data.
// Elements of retained ids are updated in place, removed ids are destroyed
// and new ids get fresh elements. A retained node keeps its displayed fill
// unless its data color changed.
func (r *Renderer) UpdateElements(nodes []*process.Node, edges []*process.Edge) {
	nextIDs := make([]string, len(nodes))
	for i, n := range nodes {
		nextIDs[i] = n.ID
	}
	added, retained, removed := Diff(r.nodeIDs(), nextIDs)

	for _, id := range removed {
		delete(r.nodeIndex, id)
		delete(r.tweens, id)
	}
	r.sources = make(map[string]*process.Node, len(nodes))
	r.nodes = make([]*NodeElement, 0, len(nodes))
	for _, n := range nodes {
		r.sources[n.ID] = n
		el, ok := r.nodeIndex[n.ID]
		if !ok {
			r.serial++
			el = &NodeElement{ID: n.ID, Fill: n.Color, Opacity: 1, Serial: r.serial}
			r.nodeIndex[n.ID] = el
		} else if el.base != n.Color {
			el.Fill = n.Color
		}
		el.base = n.Color
		el.Label = n.Label
		el.Radius = n.Size
		el.Stroke = r.theme.NodeStroke
		r.nodes = append(r.nodes, el)
	}

	edgeIDs := make([]string, len(edges))
	for i, e := range edges {
		edgeIDs[i] = e.ID
	}
	_, _, goneEdges := Diff(r.edgeIDs(), edgeIDs)
	for _, id := range goneEdges {
		delete(r.edgeIndex, id)
	}
	r.edges = make([]*EdgeElement, 0, len(edges))
	r.incident = map[string][]*EdgeElement{}
	for _, e := range edges {
		el, ok := r.edgeIndex[e.ID]
		if !ok {
			r.serial++
			el = &EdgeElement{
				ID:      e.ID,
				Source:  e.Source.ID,
				Target:  e.Target.ID,
				Color:   r.theme.EdgeColor,
				Opacity: r.theme.EdgeOpacity,
				Serial:  r.serial,
			}
			r.edgeIndex[e.ID] = el
		}
		el.Width = e.Width
		r.edges = append(r.edges, el)
		r.incident[el.Source] = append(r.incident[el.Source], el)
		if el.Target != el.Source {
			r.incident[el.Target] = append(r.incident[el.Target], el)
		}
	}

	r.logger.Debug("elements reconciled",
		"added", len(added), "retained", len(retained), "removed", len(removed),
		"edges", len(r.edges))
}

func (r *Renderer) nodeIDs() []string {
	ids := make([]string, len(r.nodes))
	for i, n := range r.nodes {
		ids[i] = n.ID
	}
	return ids
}

func (r *Renderer) edgeIDs() []string {
	ids := make([]string, len(r.edges))
	for i, e := range r.edges {
		ids[i] = e.ID
	}
	return ids
}

// UpdatePositions copies solved positions onto node elements and recomputes
// edge paths. Elements without finite coordinates keep their previous
// geometry.
func (r *Renderer) UpdatePositions() {
	for _, el := range r.nodes {
		src := r.sources[el.ID]
		if src == nil || !src.Positioned() {
			r.logger.Debug("skipping node without coordinates", "id", el.ID)
			continue
		}
		el.X, el.Y, el.HasPos = src.X, src.Y, true
	}
	for _, el := range r.edges {
		r.layoutEdge(el)
	}
}

func (r *Renderer) layoutEdge(el *EdgeElement) {
	s, t := r.nodeIndex[el.Source], r.nodeIndex[el.Target]
	if s == nil || t == nil || !s.HasPos || !t.HasPos {
		r.logger.Debug("skipping edge without coordinates", "id", el.ID)
		return
	}
	el.CX, el.CY, el.X1, el.Y1, el.X2, el.Y2 = curve(s.X, s.Y, t.X, t.Y, r.theme.Curvature, s.Radius)
	el.HasPath = true
	if el.Gradient != nil {
		el.Gradient.X1, el.Gradient.Y1 = el.X1, el.Y1
		el.Gradient.X2, el.Gradient.Y2 = el.X2, el.Y2
	}
}

// =============================================================================
// Highlighting
// =============================================================================

// HighlightNodes marks ids as highlighted and gives them and their incident
// edges full opacity. Stable ids keep full opacity without being marked.
// Everything else is dimmed when dimming is enabled.
func (r *Renderer) HighlightNodes(ids, stable []string) {
	hot := set(ids)
	keep := set(stable)
	for _, el := range r.nodes {
		switch {
		case hot[el.ID]:
			el.Highlighted, el.Opacity = true, 1
		case keep[el.ID]:
			el.Highlighted, el.Opacity = false, 1
		default:
			el.Highlighted = false
			if r.dimOthers {
				el.Opacity = r.theme.DimOpacity
			}
		}
	}
	for _, el := range r.edges {
		if hot[el.Source] || hot[el.Target] {
			el.Opacity = 1
		} else if r.dimOthers {
			el.Opacity = r.theme.DimOpacity
		}
	}
}

// ClearHighlights restores every node except the excluded ids to its
// resting opacity, and every edge not touching an excluded id.
func (r *Renderer) ClearHighlights(exclude []string) {
	skip := set(exclude)
	for _, el := range r.nodes {
		if !skip[el.ID] {
			el.Highlighted, el.Opacity = false, 1
		}
	}
	for _, el := range r.edges {
		if !skip[el.Source] && !skip[el.Target] {
			el.Opacity = r.theme.EdgeOpacity
		}
	}
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot returns a copy of the current scene in draw order.
func (r *Renderer) Snapshot() Scene {
	s := Scene{
		Width:      r.width,
		Height:     r.height,
		Background: r.theme.Background,
		LabelColor: r.theme.LabelColor,
		FontSize:   r.theme.FontSize * labelScale,
		Transform:  r.transform,
		Nodes:      make([]NodeElement, len(r.nodes)),
		Edges:      make([]EdgeElement, len(r.edges)),
	}
	for i, n := range r.nodes {
		s.Nodes[i] = *n
		if n.Highlighted {
			s.Nodes[i].Stroke = r.theme.HighlightStroke
		}
	}
	for i, e := range r.edges {
		s.Edges[i] = *e
		if e.Gradient != nil {
			g := *e.Gradient
			s.Edges[i].Gradient = &g
		}
	}
	return s
}

// Theme returns the visual constants.
func (r *Renderer) Theme() Theme { return r.theme }

// Fill returns the displayed fill of a node.
func (r *Renderer) Fill(id string) (string, bool) {
	el, ok := r.nodeIndex[id]
	if !ok {
		return "", false
	}
	return el.Fill, true
}

func set(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
