// Package sink draws a [render.Scene] into output formats.
//
// # Formats
//
//   - SVG ([RenderSVG]): vector output built with svgo; edge gradients become
//     linearGradient definitions
//   - PNG ([RenderPNG]): raster output drawn in-process with gg
//   - PDF ([RenderPDF]): SVG converted by rsvg-convert
//   - JSON ([RenderJSON]): node and link lists with positions and colors,
//     the shape d3 force views consume
//
// Every sink accepts [WithFit] to replace the scene's pan/zoom transform with
// one that frames all nodes, which is what offline export wants.
//
// [render.Scene]: github.com/matzehuels/flowgraph/pkg/render.Scene
package sink
