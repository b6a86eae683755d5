package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/loop"
	"github.com/matzehuels/flowgraph/pkg/process"
	"github.com/matzehuels/flowgraph/pkg/render"
	"github.com/matzehuels/flowgraph/pkg/render/nodelink"
	"github.com/matzehuels/flowgraph/pkg/render/sink"
)

// BuildScene draws the positioned nodes of res on a fresh renderer and
// returns its scene.
func BuildScene(res *process.Result, opts Options) (render.Scene, error) {
	opts.SetRenderDefaults()
	r := render.New(loop.New(0),
		render.WithLogger(opts.Logger),
		render.WithTheme(opts.Config.Theme),
	)
	f := r.Initialize(context.Background(), render.Size{W: opts.Width, H: opts.Height})
	if err := f.Err(); err != nil {
		return render.Scene{}, err
	}
	r.UpdateElements(res.Nodes, res.Edges)
	r.UpdatePositions()
	return r.Snapshot(), nil
}

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, s render.Scene, l graph.Layout, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	sinkOpts := []sink.Option{sink.WithScale(opts.Scale)}
	if !opts.NoFit {
		sinkOpts = append(sinkOpts, sink.WithFit())
	}
	if !opts.ShowLabels() {
		sinkOpts = append(sinkOpts, sink.WithoutLabels())
	}
	dotOpts := nodelink.Options{HideLabels: !opts.ShowLabels()}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(s, sinkOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(s, sinkOpts...)
		case FormatPDF:
			data, err = sink.RenderPDF(ctx, s, sinkOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(s, sinkOpts...)
		case FormatLayout:
			data, err = graph.MarshalLayout(l)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(s, dotOpts))
		case FormatGraphviz:
			data, err = nodelink.RenderSVG(ctx, nodelink.ToDOT(s, dotOpts))
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
