package process

import (
	"math"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// Node is a processed node: visual attributes derived from its raw record
// plus the simulation state owned by the layout engine.
type Node struct {
	ID       string
	Label    string
	Value    float64 // Valid only when HasValue
	HasValue bool

	Size            float64 // [MinSize, MaxSize]
	Degree          int     // Incident raw edges, self-loops counted twice
	Importance      float64 // [0, 1]
	CollisionRadius float64 // >= 1.5 * Size
	Color           string  // #rrggbb

	// Simulation state. Written by the layout engine only.
	X, Y   float64
	VX, VY float64
	Fixed  bool
	FX, FY float64
}

// Positioned reports whether the node has finite coordinates.
func (n *Node) Positioned() bool {
	return !math.IsNaN(n.X) && !math.IsNaN(n.Y) && !math.IsInf(n.X, 0) && !math.IsInf(n.Y, 0)
}

// Edge is a processed edge. Source and Target always point at nodes of the
// same Result.
type Edge struct {
	ID     string // Stable element key: "from->to", "#n" suffix for repeats
	Source *Node
	Target *Node
	Value  float64
	Width  float64 // [MinWidth, MaxWidth]
	Length float64 // Link rest length
}

// Result is the output of [Process].
type Result struct {
	Nodes  []*Node
	Edges  []*Edge
	Issues errors.Issues

	index map[string]*Node
	raw   []indexedNode

	topo *simple.UndirectedGraph
	gid  map[string]int64
	ids  []string
}

// Node returns the processed node with the given id.
func (r *Result) Node(id string) (*Node, bool) {
	n, ok := r.index[id]
	return n, ok
}

// Neighbors returns the sorted ids of nodes sharing an edge with id,
// excluding id itself.
func (r *Result) Neighbors(id string) []string {
	g, ok := r.gid[id]
	if !ok {
		return nil
	}
	var out []string
	it := r.topo.From(g)
	for it.Next() {
		out = append(out, r.ids[it.Node().ID()])
	}
	return sortedUnique(out)
}

// IncidentEdges returns the edges touching id in processing order.
func (r *Result) IncidentEdges(id string) []*Edge {
	var out []*Edge
	for _, e := range r.Edges {
		if e.Source.ID == id || e.Target.ID == id {
			out = append(out, e)
		}
	}
	return out
}

// MaxImportance returns the highest node importance, or 0 for no nodes.
func (r *Result) MaxImportance() float64 {
	m := 0.0
	for _, n := range r.Nodes {
		m = math.Max(m, n.Importance)
	}
	return m
}

// Stats summarizes a result for display.
type Stats struct {
	Nodes     int
	Edges     int
	Issues    int
	MaxDegree int
	Hub       string // Id of the highest-degree node
}

// Stats computes summary counts.
func (r *Result) Stats() Stats {
	s := Stats{Nodes: len(r.Nodes), Edges: len(r.Edges), Issues: len(r.Issues)}
	for _, n := range r.Nodes {
		if n.Degree > s.MaxDegree {
			s.MaxDegree, s.Hub = n.Degree, n.ID
		}
	}
	return s
}
