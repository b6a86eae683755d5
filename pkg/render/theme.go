package render

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/flowgraph/pkg/errors"
)

// Zoom bounds and wheel step.
const (
	MinZoom    = 0.1
	MaxZoom    = 4.0
	WheelStep  = 1.1
	dragSlop   = 3.0 // Screen pixels a press must travel before it drags or pans
	labelScale = 0.9 // Label font size relative to Theme.FontSize
)

// Default animation and container timings.
const (
	DefaultDuration     = 300 * time.Millisecond
	DefaultPollAttempts = 20
	DefaultPollInterval = 100 * time.Millisecond
)

// Theme holds the injected visual constants.
type Theme struct {
	Background      string  `toml:"background" yaml:"background" json:"background"`
	EdgeColor       string  `toml:"edge_color" yaml:"edge_color" json:"edge_color"`
	LabelColor      string  `toml:"label_color" yaml:"label_color" json:"label_color"`
	NodeStroke      string  `toml:"node_stroke" yaml:"node_stroke" json:"node_stroke"`
	HighlightStroke string  `toml:"highlight_stroke" yaml:"highlight_stroke" json:"highlight_stroke"`
	NodeStrokeWidth float64 `toml:"node_stroke_width" yaml:"node_stroke_width" json:"node_stroke_width"`
	FontSize        float64 `toml:"font_size" yaml:"font_size" json:"font_size"`
	EdgeOpacity     float64 `toml:"edge_opacity" yaml:"edge_opacity" json:"edge_opacity"`
	DimOpacity      float64 `toml:"dim_opacity" yaml:"dim_opacity" json:"dim_opacity"`
	// Curvature offsets an edge's control point from the chord midpoint by
	// this fraction of the chord length.
	Curvature float64 `toml:"curvature" yaml:"curvature" json:"curvature"`
}

// DefaultTheme returns the dark default theme.
func DefaultTheme() Theme {
	return Theme{
		Background:      "#1e1e2e",
		EdgeColor:       "#6c7086",
		LabelColor:      "#cdd6f4",
		NodeStroke:      "#11111b",
		HighlightStroke: "#f9e2af",
		NodeStrokeWidth: 1.5,
		FontSize:        12,
		EdgeOpacity:     0.6,
		DimOpacity:      0.15,
		Curvature:       0.15,
	}
}

// Validate checks that every theme color parses.
func (t Theme) Validate() error {
	for name, c := range map[string]string{
		"background":       t.Background,
		"edge_color":       t.EdgeColor,
		"label_color":      t.LabelColor,
		"node_stroke":      t.NodeStroke,
		"highlight_stroke": t.HighlightStroke,
	} {
		if _, err := colorful.Hex(c); err != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "theme %s: invalid color %q", name, c)
		}
	}
	if t.DimOpacity < 0 || t.DimOpacity > 1 || t.EdgeOpacity < 0 || t.EdgeOpacity > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "theme opacities must be in [0, 1]")
	}
	return nil
}
