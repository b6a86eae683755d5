package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg,json", []string{"svg", "json"}},
		{" svg , dot ,", []string{"svg", "dot"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !assert.Equal(t, tt.want, got) {
			t.Logf("input %q", tt.in)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name          string
		output, input string
		want          string
	}{
		{"from input", "", "data/graph.json", "data/graph"},
		{"explicit base", "out/g", "graph.json", "out/g"},
		{"strips svg", "out/g.svg", "graph.json", "out/g"},
		{"strips layout", "out/g.layout.json", "graph.json", "out/g"},
		{"strips graphviz", "g.gv.svg", "graph.json", "g"},
		{"keeps unknown", "g.txt", "graph.json", "g.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, basePath(tt.output, tt.input))
		})
	}
}

func TestOutputPaths(t *testing.T) {
	t.Run("single format explicit output", func(t *testing.T) {
		got := outputPaths([]string{"png"}, "graph.yaml", "picture.png")
		assert.Equal(t, map[string]string{"png": "picture.png"}, got)
	})
	t.Run("multiple formats share a base", func(t *testing.T) {
		got := outputPaths([]string{"svg", "layout", "graphviz"}, "graph.yaml", "")
		assert.Equal(t, map[string]string{
			"svg":      "graph.svg",
			"layout":   "graph.layout.json",
			"graphviz": "graph.gv.svg",
		}, got)
	})
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "out")
	artifacts := map[string][]byte{
		pipeline.FormatSVG:  []byte("<svg/>"),
		pipeline.FormatJSON: []byte("{}"),
	}

	paths, err := writeArtifacts(artifacts, []string{"svg", "json", "png"}, "graph.json", base)
	require.NoError(t, err)
	assert.Equal(t, []string{base + ".svg", base + ".json"}, paths, "missing artifacts are skipped")

	data, err := os.ReadFile(base + ".svg")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	_, err = writeArtifacts(artifacts, []string{"svg"}, "graph.json", filepath.Join(dir, "missing", "x.svg"))
	assert.Error(t, err)
}

func TestBuildReport(t *testing.T) {
	d := graph.Dataset{
		Nodes: []graph.Node{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
			{ID: "c", Label: "C"},
			{ID: "lonely", Label: "L"},
		},
		Edges: []graph.Edge{
			{From: "a", To: "b"},
			{From: "a", To: "c"},
			{From: "a", To: "ghost"},
		},
	}
	res := pipeline.Process(d, pipeline.Options{Seed: pipeline.DefaultSeed})

	r := buildReport("g.json", d, res)
	assert.Equal(t, "g.json", r.Input)
	assert.Equal(t, graph.Hash(d), r.Hash)
	assert.Equal(t, 4, r.Nodes)
	assert.Equal(t, 2, r.Edges)
	assert.Equal(t, 1, r.Isolated)
	assert.Equal(t, "a", r.Hub)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, r.HubColor, "generated colors are reported")
	assert.Equal(t, 3, r.MaxDegree, "raw edges count toward degree")
	require.Len(t, r.Issues, 1)
	assert.True(t, errors.Is(res.Issues.Err(), errors.ErrCodeValidation))
}

func TestBuildReportCleanDataset(t *testing.T) {
	d := graph.Dataset{Nodes: []graph.Node{{ID: "a", Label: "A"}}}
	r := buildReport("g.json", d, pipeline.Process(d, pipeline.Options{}))
	assert.NotNil(t, r.Issues, "encodes as an empty list")
	assert.Empty(t, r.Issues)
}

func TestRootCommandRegistersHosts(t *testing.T) {
	root := New(os.Stderr, LogInfo).RootCommand()
	for _, name := range []string{"inspect", "render", "view", "serve", "config", "cache", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestCompleteFormats(t *testing.T) {
	got, _ := completeFormats(nil, nil, "")
	assert.Equal(t, pipeline.FormatNames, got)

	got, _ = completeFormats(nil, nil, "svg,png,")
	assert.NotContains(t, got, "svg,png,svg")
	assert.Contains(t, got, "svg,png,json")
	assert.Len(t, got, len(pipeline.FormatNames)-2)
}

func TestCompleteDataset(t *testing.T) {
	exts, _ := completeDataset(nil, nil, "")
	assert.ElementsMatch(t, []string{"json", "yaml", "yml", "toml"}, exts)

	none, _ := completeDataset(nil, []string{"g.json"}, "")
	assert.Empty(t, none)
}

func TestSwatch(t *testing.T) {
	assert.Contains(t, swatch("#ff0000"), "■")
	assert.Empty(t, swatch("red"))
}
