package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/flowgraph/pkg/process"
)

func pos(n *process.Node) r2.Vec { return r2.Vec{X: n.X, Y: n.Y} }
func vel(n *process.Node) r2.Vec { return r2.Vec{X: n.VX, Y: n.VY} }

func addVel(n *process.Node, dv r2.Vec) {
	n.VX += dv.X
	n.VY += dv.Y
}

// repulse applies the degree-weighted many-body push between every pair of
// live nodes.
func (e *Engine) repulse(live []int) {
	min2 := e.p.MinDistance * e.p.MinDistance
	max2 := e.p.MaxDistance * e.p.MaxDistance
	for _, i := range live {
		a := e.nodes[i]
		for _, j := range live {
			if i == j {
				continue
			}
			b := e.nodes[j]
			d := r2.Sub(pos(b), pos(a))
			if d.X == 0 && d.Y == 0 {
				d = e.jiggle()
			}
			l := d.X*d.X + d.Y*d.Y
			if l >= max2 {
				continue
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := e.strength[j] * e.alpha / l
			addVel(a, r2.Scale(-w, d))
		}
	}
}

// center pulls every live node toward the canvas center.
func (e *Engine) center(live []int) {
	c := r2.Vec{X: e.width / 2, Y: e.height / 2}
	k := e.p.Centering * e.alpha
	for _, i := range live {
		n := e.nodes[i]
		addVel(n, r2.Scale(k, r2.Sub(c, pos(n))))
	}
}

// link pulls the endpoints of each edge toward its rest length. Strength is
// divided by the larger endpoint degree so hubs stay flexible.
func (e *Engine) link(ok []bool) {
	for _, ed := range e.edges {
		s, t := ed.Source, ed.Target
		if s == t || !ok[e.index[s.ID]] || !ok[e.index[t.ID]] {
			continue
		}
		ds, dt := float64(max(s.Degree, 1)), float64(max(t.Degree, 1))
		strength := e.p.LinkStrength / math.Max(ds, dt)
		bias := ds / (ds + dt)

		d := r2.Sub(r2.Add(pos(t), vel(t)), r2.Add(pos(s), vel(s)))
		if d.X == 0 && d.Y == 0 {
			d = e.jiggle()
		}
		l := r2.Norm(d)
		k := (l - ed.Length) / l * e.alpha * strength
		d = r2.Scale(k, d)
		addVel(t, r2.Scale(-bias, d))
		addVel(s, r2.Scale(1-bias, d))
	}
}

// collide separates overlapping collision circles using predicted positions.
func (e *Engine) collide(live []int) {
	for x, i := range live {
		a := e.nodes[i]
		ra := a.CollisionRadius
		for _, j := range live[x+1:] {
			b := e.nodes[j]
			rb := b.CollisionRadius
			r := ra + rb
			d := r2.Sub(r2.Add(pos(a), vel(a)), r2.Add(pos(b), vel(b)))
			if d.X == 0 && d.Y == 0 {
				d = e.jiggle()
			}
			l := r2.Norm(d)
			if l >= r {
				continue
			}
			d = r2.Scale((r-l)/l*e.p.Collision, d)
			w := rb * rb / (ra*ra + rb*rb)
			addVel(a, r2.Scale(w, d))
			addVel(b, r2.Scale(-(1-w), d))
		}
	}
}

// integrate applies velocity decay and moves free nodes. Fixed nodes are
// held at their pinned position.
func (e *Engine) integrate(live []int) {
	keep := 1 - e.p.VelocityDecay
	for _, i := range live {
		n := e.nodes[i]
		if n.Fixed {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= keep
		n.VY *= keep
		n.X += n.VX
		n.Y += n.VY
	}
}

func (e *Engine) jiggle() r2.Vec {
	return r2.Vec{X: (e.rnd.Float64() - 0.5) * 1e-6, Y: (e.rnd.Float64() - 0.5) * 1e-6}
}
