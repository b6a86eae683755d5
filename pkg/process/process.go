package process

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/graph"
)

// Size and width bounds shared by every dataset.
const (
	MinSize     = 12.0
	MaxSize     = 48.0
	UniformSize = 30.0 // Size of every valued node when all values are equal

	MinWidth = 1.0
	MaxWidth = 24.0

	DefaultBaseDistance = 200.0
)

// Rand is the randomness source used for generated colors.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Options tunes the processor. The zero value is usable.
type Options struct {
	// BaseDistance is the rest length of a link between two unimportant
	// nodes. Defaults to 200.
	BaseDistance float64

	// Rand drives generated colors. Defaults to the global source.
	Rand Rand
}

func (o Options) withDefaults() Options {
	if o.BaseDistance <= 0 {
		o.BaseDistance = DefaultBaseDistance
	}
	return o
}

// Process converts raw records into renderable nodes and edges.
//
// Process never fails: malformed records are dropped or repaired and listed
// in Result.Issues. Nodes missing an id or label and repeated ids are
// dropped. Edges whose endpoints do not resolve are dropped. Unusable
// values fall back to the minimum size or width.
func Process(d graph.Dataset, opts Options) *Result {
	opts = opts.withDefaults()
	res := &Result{index: make(map[string]*Node, len(d.Nodes))}

	degree := rawDegrees(d.Edges)

	for i, raw := range d.Nodes {
		if err := errors.ValidateID(raw.ID); err != nil {
			res.Issues.Add(errors.KindNode, i, raw.ID, "id", "%s", errors.UserMessage(err))
			continue
		}
		if raw.Label == "" {
			res.Issues.Add(errors.KindNode, i, raw.ID, "label", "missing label")
			continue
		}
		if _, dup := res.index[raw.ID]; dup {
			res.Issues.Add(errors.KindNode, i, raw.ID, "id", "duplicate id; first occurrence kept")
			continue
		}
		n := &Node{ID: raw.ID, Label: raw.Label, Degree: degree[raw.ID]}
		res.Nodes = append(res.Nodes, n)
		res.index[n.ID] = n
		res.raw = append(res.raw, indexedNode{index: i, node: raw})
	}

	res.assignSizes()
	for _, rn := range res.raw {
		n := res.index[rn.node.ID]
		n.Importance = Importance(n.Size, n.Degree)
		n.CollisionRadius = CollisionRadius(n.Size, n.Degree, n.Importance)
		n.Color = res.assignColor(rn, opts.Rand)
	}

	res.resolveEdges(d.Edges, opts.BaseDistance)
	res.buildTopology()
	res.raw = nil
	return res
}

// rawDegrees counts incident raw edges per id in one pass over every raw
// edge, resolved or not. A self-loop counts twice.
func rawDegrees(edges []graph.Edge) map[string]int {
	degree := make(map[string]int)
	for _, e := range edges {
		degree[e.From]++
		degree[e.To]++
	}
	return degree
}

// Importance combines size and degree into [0, 1]:
// (size/MaxSize · min(degree/10, 1))^1.5.
func Importance(size float64, degree int) float64 {
	v := size / MaxSize * math.Min(float64(degree)/10, 1)
	return math.Pow(clamp(v, 0, 1), 1.5)
}

// CollisionRadius is the footprint the layout keeps clear around a node.
// It is never smaller than 1.5 times the node size.
func CollisionRadius(size float64, degree int, importance float64) float64 {
	base := size * 1.5
	bonus := math.Pow(float64(degree), 0.7) * 2
	return math.Max(base*(1+importance*2)+bonus, base)
}

type indexedNode struct {
	index int
	node  graph.Node
}

func (r *Result) assignSizes() {
	values := make(map[string]float64, len(r.raw))
	for _, rn := range r.raw {
		if rn.node.Value == nil {
			continue
		}
		v, ok := numeric(rn.node.Value)
		switch {
		case !ok:
			r.Issues.Add(errors.KindNode, rn.index, rn.node.ID, "value", "non-numeric value %v", rn.node.Value)
		case v < 0:
			r.Issues.Add(errors.KindNode, rn.index, rn.node.ID, "value", "negative value %v", v)
		default:
			values[rn.node.ID] = v
			r.index[rn.node.ID].Value = v
			r.index[rn.node.ID].HasValue = true
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	for _, n := range r.Nodes {
		v, ok := values[n.ID]
		switch {
		case len(r.Nodes) == 1, !ok:
			n.Size = MinSize
		case lo == hi:
			n.Size = UniformSize
		default:
			n.Size = clamp(MinSize+(v-lo)/(hi-lo)*(MaxSize-MinSize), MinSize, MaxSize)
		}
	}
}

func (r *Result) assignColor(rn indexedNode, rnd Rand) string {
	if rn.node.Color != "" {
		if c, err := colorful.Hex(rn.node.Color); err == nil {
			return c.Hex()
		}
		r.Issues.Add(errors.KindNode, rn.index, rn.node.ID, "color", "invalid color %q; generated one instead", rn.node.Color)
	}
	return RandomColor(rnd)
}

// RandomColor returns a saturated mid-lightness color as #rrggbb:
// hue in [0, 360), saturation in [60, 80]%, lightness in [45, 55]%.
func RandomColor(rnd Rand) string {
	f := rand.Float64
	if rnd != nil {
		f = rnd.Float64
	}
	h := f() * 360
	s := 0.60 + f()*0.20
	l := 0.45 + f()*0.10
	return colorful.Hsl(h, s, l).Clamped().Hex()
}

func (r *Result) resolveEdges(edges []graph.Edge, baseDistance float64) {
	type resolved struct {
		index    int
		src, dst *Node
		value    float64
	}
	var kept []resolved
	maxValue := 1.0
	for i, e := range edges {
		src, okS := r.index[e.From]
		dst, okT := r.index[e.To]
		if !okS || !okT {
			missing := e.From
			if okS {
				missing = e.To
			}
			r.Issues.Add(errors.KindEdge, i, e.From+"->"+e.To, "", "unresolved endpoint %q; edge dropped", missing)
			continue
		}
		value := 1.0
		if e.Value != nil {
			v, ok := numeric(e.Value)
			if !ok {
				r.Issues.Add(errors.KindEdge, i, e.From+"->"+e.To, "value", "non-numeric value %v; using 1", e.Value)
			} else {
				value = v
			}
		}
		kept = append(kept, resolved{index: i, src: src, dst: dst, value: value})
		maxValue = math.Max(maxValue, value)
	}

	seen := make(map[string]int, len(kept))
	for _, k := range kept {
		key := k.src.ID + "->" + k.dst.ID
		id := key
		if n := seen[key]; n > 0 {
			id = fmt.Sprintf("%s#%d", key, n)
		}
		seen[key]++
		r.Edges = append(r.Edges, &Edge{
			ID:     id,
			Source: k.src,
			Target: k.dst,
			Value:  k.value,
			Width:  EdgeWidth(k.value, maxValue),
			Length: baseDistance * (1 + 2*math.Max(k.src.Importance, k.dst.Importance)),
		})
	}
}

// EdgeWidth scales v linearly from [1, maxValue] onto [MinWidth, MaxWidth].
func EdgeWidth(v, maxValue float64) float64 {
	if maxValue <= 1 || v <= 1 {
		return MinWidth
	}
	return clamp(MinWidth+(v-1)/(maxValue-1)*(MaxWidth-MinWidth), MinWidth, MaxWidth)
}

func (r *Result) buildTopology() {
	r.topo = simple.NewUndirectedGraph()
	r.gid = make(map[string]int64, len(r.Nodes))
	r.ids = make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		r.gid[n.ID] = int64(i)
		r.ids[i] = n.ID
		r.topo.AddNode(simple.Node(i))
	}
	for _, e := range r.Edges {
		if e.Source == e.Target {
			continue
		}
		u, v := simple.Node(r.gid[e.Source.ID]), simple.Node(r.gid[e.Target.ID])
		r.topo.SetEdge(r.topo.NewEdge(u, v))
	}
}

// numeric extracts a finite float from a decoded value.
func numeric(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case interface{ Float64() (float64, error) }:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// sortedUnique sorts ids and drops repeats.
func sortedUnique(ids []string) []string {
	slices.Sort(ids)
	return slices.Compact(ids)
}
