package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/pipeline"
)

// maxListedIssues caps the validation warnings printed after a render.
const maxListedIssues = 10

// renderCommand creates the render command for exporting settled layouts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noLabels   bool
		cc         cacheOpts
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Settle the layout and export it",
		Long: `Settle the force layout of a dataset and export it.

The simulation runs headless to convergence. Settled positions are cached per
dataset, canvas size, simulation parameters and seed, so rendering the same
graph again skips the simulation.

Formats:
  svg       scene as SVG (default)
  png       raster image
  pdf       vector document
  json      scene elements with positions and colors
  layout    settled positions only
  dot       Graphviz source with pinned positions
  graphviz  SVG drawn by Graphviz from the pinned positions`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataset,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if noLabels {
				show := false
				opts.Labels = &show
			}
			return c.runRender(cmd.Context(), opts, output, cc)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s), comma-separated: svg (default), png, pdf, json, layout, dot, graphviz")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "canvas width (default from config)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "canvas height (default from config)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "random seed for generated colors and layout jitter")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "raster scale for png")
	cmd.Flags().BoolVar(&opts.NoFit, "no-fit", false, "keep world coordinates instead of framing the graph")
	cmd.Flags().BoolVar(&noLabels, "no-labels", false, "omit node labels")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached layouts")
	cmd.Flags().BoolVar(&cc.disabled, "no-cache", false, "disable the layout cache")
	cmd.Flags().StringVar(&cc.redisAddr, "redis", "", "share the layout cache through Redis at this address")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, cc cacheOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts.Config = &cfg
	opts.Logger = c.Logger

	runner, err := c.newRunner(ctx, cc)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Settling layout")
	opts.Progress = spinner.SetProgress
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	printIssues(result.Processed.Issues, maxListedIssues)

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, opts.Input, output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", opts.Input)
	printStats(result.Stats, result.CacheInfo.LayoutHit)
	for _, p := range paths {
		printFile(p)
	}
	printNewline()
	printNextStep("Explore it interactively", "flowgraph view "+opts.Input)
	return nil
}

// outputPaths maps each format to its destination. A single format with an
// explicit output goes exactly there; otherwise files share a base path and
// differ by extension.
func outputPaths(formats []string, input, output string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + pipeline.Extension(f)
	}
	return paths
}

// writeArtifacts writes every requested artifact and returns the paths in
// format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	dest := outputPaths(formats, input, output)
	written := make([]string, 0, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		if err := os.WriteFile(dest[f], data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", dest[f], err)
		}
		written = append(written, dest[f])
	}
	return written, nil
}
