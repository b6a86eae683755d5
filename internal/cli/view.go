package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/controller"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/loop"
)

// viewCommand creates the view command for interactive terminal sessions.
func (c *CLI) viewCommand() *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Explore a graph interactively in the terminal",
		Long: `Explore a graph interactively in the terminal.

The layout settles live. Cycle the hover with tab and shift+tab, select the
hovered node with enter to start a color flow through its neighbors, clear
the selection with esc, zoom with + and -, pan with the arrow keys and
restart the simulation with r.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataset,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], seed)
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for generated colors and layout jitter (0 = random)")

	return cmd
}

func (c *CLI) runView(ctx context.Context, input string, seed uint64) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	d, err := graph.ReadFile(input)
	if err != nil {
		return err
	}

	// Logging would tear the alternate screen; errors surface in the status line.
	logger := c.Logger.WithPrefix("view")
	logger.SetOutput(io.Discard)

	l := loop.New(loop.DefaultFrame)
	opts := []controller.Option{controller.WithLogger(logger)}
	if seed != 0 {
		opts = append(opts, controller.WithSeed(seed))
	}
	ctrl := controller.New(l, cfg, opts...)
	defer ctrl.Cleanup()

	v := newViewer(l, ctrl, filepath.Base(input))
	f := ctrl.UpdateData(ctx, d)
	l.Flush()
	if !f.Done() {
		l.StepUntil(f.Done, cfg.Container.PollAttempts+1)
	}
	if err := f.Err(); err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}

	_, err = tea.NewProgram(v, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
