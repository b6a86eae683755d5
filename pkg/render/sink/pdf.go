package sink

import (
	"context"

	"github.com/matzehuels/flowgraph/pkg/render"
)

// RenderPDF renders the scene as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, s render.Scene, opts ...Option) ([]byte, error) {
	return render.Convert(ctx, RenderSVG(s, opts...), "pdf", 1)
}
