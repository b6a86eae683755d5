// Package render owns the retained visual elements of a graph view.
//
// # Overview
//
// A [Renderer] keeps exactly one element per node id and per edge id.
// [Renderer.UpdateElements] reconciles them against processed data using
// [Diff]: retained elements are updated in place, removed ones destroyed
// and new ones created. Positions flow in from the layout engine through
// [Renderer.UpdatePositions] once per tick.
//
// The renderer also exposes the interaction primitives hosts drive:
//
//   - Pointer input ([Renderer.HandlePointer]): click, drag, pan, wheel zoom
//     and hover, reported through [Handlers]
//   - Hover emphasis ([Renderer.HighlightNodes], [Renderer.ClearHighlights])
//   - Color-flow ([Renderer.AnimateColorTransition]): a fill tween on one node
//     followed by a wave of hops across a queue of other nodes
//
// All timing comes from a [loop.Scheduler]; the renderer never sleeps or
// starts goroutines.
//
// # Output
//
// [Renderer.Snapshot] returns an immutable [Scene] that the [sink] package
// draws as SVG, PNG, PDF or JSON. [Convert] pipes any SVG through the
// external rsvg-convert tool (from librsvg).
//
//	scene := r.Snapshot()
//	svg := sink.RenderSVG(scene)
//	pdf, err := render.Convert(ctx, svg, "pdf", 1)
//
// The [nodelink] subpackage renders the same positions through Graphviz.
//
// [sink]: github.com/matzehuels/flowgraph/pkg/render/sink
// [nodelink]: github.com/matzehuels/flowgraph/pkg/render/nodelink
package render
