package render

import (
	"fmt"
	"slices"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/loop"
)

// tween interpolates one node's fill.
type tween struct {
	from, to colorful.Color
	target   string
	start    time.Duration
}

// wave is the remainder of a color-flow spreading from origin: one queued
// node is animated to target per elapsed step.
type wave struct {
	origin  string
	target  string
	queue   []string
	reverse bool
	cancel  loop.Cancel
}

// Hop is a queued, not yet started step of a color-flow wave. Target is
// the wave's target; a hop color function may pick another when the hop
// starts.
type Hop struct {
	Origin  string
	ID      string
	Target  string
	Reverse bool
}

// AnimateColorTransition tweens a node's fill to target over the step
// duration and repaints its incident edges with gradients between their
// endpoint fills. Once the step commits, the ids in queue are animated one
// after another, each to the color chosen by [WithHopColor] when its hop
// starts, or to target without one. The returned future resolves when this
// node's own step commits, not when the wave ends. Reverse only labels the
// wave.
func (r *Renderer) AnimateColorTransition(id, target string, queue []string, reverse bool) *loop.Future {
	f, err := r.step(id, target)
	if err != nil {
		return loop.Resolved(err)
	}
	if len(queue) > 0 {
		w := &wave{origin: id, target: target, queue: slices.Clone(queue), reverse: reverse}
		r.waves = append(r.waves, w)
		f.Then(func(error) { r.scheduleHop(w) })
	}
	return f
}

func (r *Renderer) step(id, target string) (*loop.Future, error) {
	if !r.ready {
		return nil, errors.New(errors.ErrCodeTransition, "renderer not initialized")
	}
	el, ok := r.nodeIndex[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeTransition, "unknown node %q", id)
	}
	to, err := colorful.Hex(target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransition, err, "invalid target color %q", target)
	}
	from, err := colorful.Hex(el.Fill)
	if err != nil {
		from = to
	}

	tw := &tween{from: from, to: to, target: target, start: r.sched.Now()}
	r.tweens[id] = tw
	r.ensureTweenHook()

	f := loop.NewFuture()
	r.inflight[f] = r.sched.After(r.duration, func() {
		delete(r.inflight, f)
		if r.nodeIndex[id] != el {
			f.Resolve(errors.New(errors.ErrCodeTransition, "node %q removed during transition", id))
			return
		}
		// A newer step on the same node owns the fill.
		if r.tweens[id] == tw {
			delete(r.tweens, id)
			el.Fill = target
			r.paintEdges(id)
		}
		f.Resolve(nil)
	})
	return f, nil
}

func (r *Renderer) scheduleHop(w *wave) {
	if !slices.Contains(r.waves, w) {
		return
	}
	if r.stagger > 0 {
		w.cancel = r.sched.After(r.stagger, func() {
			w.cancel = nil
			r.hop(w)
		})
		return
	}
	r.hop(w)
}

func (r *Renderer) hop(w *wave) {
	for len(w.queue) > 0 {
		next := w.queue[0]
		w.queue = w.queue[1:]
		f, err := r.step(next, r.hopTarget(w, next))
		if err != nil {
			r.logger.Debug("wave hop skipped", "origin", w.origin, "node", next, "err", err)
			continue
		}
		f.Then(func(error) { r.scheduleHop(w) })
		return
	}
	r.dropWave(w)
}

func (r *Renderer) hopTarget(w *wave, id string) string {
	if r.hopColor != nil {
		if c := r.hopColor(Hop{Origin: w.origin, ID: id, Target: w.target, Reverse: w.reverse}); c != "" {
			return c
		}
	}
	return w.target
}

func (r *Renderer) dropWave(w *wave) {
	r.waves = slices.DeleteFunc(r.waves, func(x *wave) bool { return x == w })
}

// PendingHops lists the queued steps of every active wave in start order.
func (r *Renderer) PendingHops() []Hop {
	var hops []Hop
	for _, w := range r.waves {
		for _, id := range w.queue {
			hops = append(hops, Hop{Origin: w.origin, ID: id, Target: w.target, Reverse: w.reverse})
		}
	}
	return hops
}

// CancelWaves drops every queued hop. Steps already animating finish.
func (r *Renderer) CancelWaves() {
	for _, w := range r.waves {
		if w.cancel != nil {
			w.cancel()
		}
	}
	r.waves = nil
}

// Animating reports whether any fill tween is running.
func (r *Renderer) Animating() bool { return len(r.tweens) > 0 }

func (r *Renderer) ensureTweenHook() {
	if r.tweenHook != nil {
		return
	}
	r.tweenHook = r.sched.OnFrame(r.frame)
}

func (r *Renderer) stopTweens() {
	if r.tweenHook != nil {
		r.tweenHook()
		r.tweenHook = nil
	}
	r.tweens = map[string]*tween{}
}

// frame advances every running tween.
func (r *Renderer) frame() {
	if len(r.tweens) == 0 {
		r.stopTweens()
		return
	}
	now := r.sched.Now()
	for id, tw := range r.tweens {
		el := r.nodeIndex[id]
		if el == nil {
			delete(r.tweens, id)
			continue
		}
		if now <= tw.start {
			continue
		}
		t := 1.0
		if r.duration > 0 {
			t = min(1, float64(now-tw.start)/float64(r.duration))
		}
		el.Fill = tw.from.BlendLab(tw.to, t).Clamped().Hex()
		r.paintEdges(id)
	}
}

// paintEdges gives every edge incident to id a gradient between the current
// fills of its endpoints.
func (r *Renderer) paintEdges(id string) {
	for _, e := range r.incident[id] {
		s, t := r.nodeIndex[e.Source], r.nodeIndex[e.Target]
		if s == nil || t == nil {
			continue
		}
		if e.Gradient == nil {
			e.Gradient = &Gradient{ID: fmt.Sprintf("grad-%d", e.Serial)}
		}
		e.Gradient.From, e.Gradient.To = s.Fill, t.Fill
		e.Gradient.X1, e.Gradient.Y1 = e.X1, e.Y1
		e.Gradient.X2, e.Gradient.Y2 = e.X2, e.Y2
	}
}
