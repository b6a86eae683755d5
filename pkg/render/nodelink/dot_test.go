package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/flowgraph/pkg/render"
)

func scene() render.Scene {
	return render.Scene{
		Width: 200, Height: 100, Background: "#101010", LabelColor: "#eeeeee", FontSize: 10,
		Nodes: []render.NodeElement{
			{ID: "a", Label: "Alpha", X: 50, Y: 20, HasPos: true, Radius: 18, Fill: "#ff0000", Stroke: "#000000", Opacity: 1},
			{ID: "b", Label: "b", X: 150, Y: 80, HasPos: true, Radius: 36, Fill: "#00ff00", Opacity: 0.5, Highlighted: true},
			{ID: "c", Label: "c", Radius: 12, Fill: "#0000ff", Opacity: 1},
		},
		Edges: []render.EdgeElement{
			{ID: "a->b", Source: "a", Target: "b", Width: 2, Opacity: 1, Color: "#888888",
				Gradient: &render.Gradient{From: "#ff0000", To: "#00ff00"}},
			{ID: "b->c", Source: "b", Target: "c", Width: 1, Opacity: 1, Color: "#888888"},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(scene(), Options{Detailed: true})

	for _, want := range []string{
		"graph G {",
		"layout=neato;",
		`bgcolor="#101010"`,
		`"a" [label="Alpha\na", pos="50.00,80.00!", width=0.5000, fillcolor="#ff0000", color="#000000"];`,
		`pos="150.00,20.00!", width=1.0000, fillcolor="#00ff0080"`,
		"penwidth=3",
		`"a" -- "b" [id="a->b", color="#ff0000:#00ff00", penwidth=2.00];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"c"`) {
		t.Error("DOT includes a node without a position")
	}
}

func TestToDOTHideLabels(t *testing.T) {
	dot := ToDOT(scene(), Options{HideLabels: true})
	if strings.Contains(dot, "Alpha") {
		t.Error("labels drawn with HideLabels")
	}
}

func TestWithAlpha(t *testing.T) {
	tests := []struct {
		hex     string
		opacity float64
		want    string
	}{
		{"#ff0000", 1, "#ff0000"},
		{"#ff0000", 0, "#ff000000"},
		{"#ff0000", 0.15, "#ff000026"},
		{"red", 0.5, "red"},
	}
	for _, tt := range tests {
		if got := withAlpha(tt.hex, tt.opacity); got != tt.want {
			t.Errorf("withAlpha(%q, %v) = %q, want %q", tt.hex, tt.opacity, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="150pt" height="75pt" viewBox="0.00 0.00 150.00 75.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 150.00 75.00" width="150" height="75"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s", got)
	}
	if out := normalizeViewBox([]byte("<svg></svg>")); string(out) != "<svg></svg>" {
		t.Errorf("without viewBox = %s", out)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(scene(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "Alpha") {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}

	if _, err := RenderSVG(context.Background(), "graph {"); err == nil {
		t.Error("RenderSVG accepted malformed DOT")
	}
}
