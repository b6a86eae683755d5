package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/pipeline"
	"github.com/matzehuels/flowgraph/pkg/process"
)

// inspectReport is the --json output of inspect.
type inspectReport struct {
	Input     string        `json:"input"`
	Hash      string        `json:"hash"`
	Nodes     int           `json:"nodes"`
	Edges     int           `json:"edges"`
	Isolated  int           `json:"isolated"`
	MaxDegree int           `json:"max_degree"`
	Hub       string        `json:"hub,omitempty"`
	HubColor  string        `json:"hub_color,omitempty"`
	Issues    errors.Issues `json:"issues"`
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		asJSON bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Report node and edge counts and validation issues",
		Long: `Process a dataset file and report what the engine would draw.

Malformed records are not fatal: nodes without an id or label, duplicate ids,
non-numeric values and edges with unknown endpoints are dropped or repaired
and listed as issues. Use --strict to exit non-zero when any are found.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataset,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], asJSON, strict)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the dataset has issues")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, asJSON, strict bool) error {
	d, err := graph.ReadFile(input)
	if err != nil {
		return err
	}
	res := pipeline.Process(d, pipeline.Options{Seed: pipeline.DefaultSeed})
	report := buildReport(input, d, res)
	loggerFromContext(ctx).Debug("inspected dataset", "nodes", report.Nodes, "edges", report.Edges, "issues", len(report.Issues))

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if strict && len(report.Issues) > 0 {
		return res.Issues.Err()
	}
	return nil
}

func buildReport(input string, d graph.Dataset, res *process.Result) inspectReport {
	st := res.Stats()
	r := inspectReport{
		Input:     input,
		Hash:      graph.Hash(d),
		Nodes:     st.Nodes,
		Edges:     st.Edges,
		MaxDegree: st.MaxDegree,
		Hub:       st.Hub,
		Issues:    res.Issues,
	}
	if r.Issues == nil {
		r.Issues = errors.Issues{}
	}
	if hub, ok := res.Node(st.Hub); ok {
		r.HubColor = hub.Color
	}
	for _, n := range res.Nodes {
		if n.Degree == 0 {
			r.Isolated++
		}
	}
	return r
}

func printReport(r inspectReport) {
	printInfo("%s", StyleTitle.Render(r.Input))
	printKeyValue("nodes", StyleNumber.Render(strconv.Itoa(r.Nodes)))
	printKeyValue("edges", StyleNumber.Render(strconv.Itoa(r.Edges)))
	printKeyValue("isolated", StyleNumber.Render(strconv.Itoa(r.Isolated)))
	if r.Hub != "" {
		printKeyValue("hub", fmt.Sprintf("%s %s %s", swatch(r.HubColor), StyleHighlight.Render(r.Hub), StyleDim.Render(fmt.Sprintf("(degree %d)", r.MaxDegree))))
	}
	printKeyValue("hash", StyleDim.Render(r.Hash[:12]))

	if len(r.Issues) == 0 {
		printSuccess("No issues")
		return
	}
	printNewline()
	printDetail("%d issues", len(r.Issues))
	printIssues(r.Issues, len(r.Issues))
}
