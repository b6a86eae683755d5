// Package nodelink renders a graph scene through Graphviz.
//
// # Overview
//
// The scene's solved positions are pinned (pos="x,y!") and handed to the
// neato engine, so Graphviz only draws: it never re-lays out the graph.
// This gives a second, independent rendering of the same positions with
// Graphviz's own text shaping and edge splines.
//
// # Usage
//
//	dot := nodelink.ToDOT(scene, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # DOT Format
//
// [ToDOT] emits an undirected graph with layout=neato and inputscale=72, so
// positions are in points. The y axis is flipped because Graphviz grows
// upward. Nodes without a position are left out, as are edges touching them.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
