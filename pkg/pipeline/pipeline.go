// Package pipeline provides the offline rendering pipeline for flowgraph.
//
// This package implements the complete load → process → settle → render
// pipeline used by the render command and by the HTTP host's export
// endpoints. By centralizing this logic, every entry point produces the
// same artifacts for the same dataset and options.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Read a dataset file (JSON, YAML or TOML)
//  2. Process: Derive sizes, colors and link lengths, collecting issues
//  3. Settle: Run the force simulation to convergence, or reuse a cached layout
//  4. Render: Generate output in various formats (SVG, PNG, PDF, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    Input:   "graph.json",
//	    Formats: []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/config"
	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/layout"
	"github.com/matzehuels/flowgraph/pkg/process"
	"github.com/matzehuels/flowgraph/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultSeed is the default random seed for reproducible colors and
	// layouts.
	DefaultSeed = uint64(42)

	// DefaultScale is the default raster scale for PNG output.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
	FormatLayout   = "layout"   // Settled positions, the cache format
	FormatDOT      = "dot"      // Graphviz source with pinned positions
	FormatGraphviz = "graphviz" // SVG drawn by Graphviz
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatPNG:      true,
	FormatPDF:      true,
	FormatJSON:     true,
	FormatLayout:   true,
	FormatDOT:      true,
	FormatGraphviz: true,
}

// FormatNames lists the supported formats in display order.
var FormatNames = []string{FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatLayout, FormatDOT, FormatGraphviz}

// Extension returns the file extension for a format.
func Extension(format string) string {
	switch format {
	case FormatGraphviz:
		return "gv.svg"
	case FormatLayout:
		return "layout.json"
	}
	return format
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the rendering pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Input string `json:"input,omitempty"` // Dataset path; ignored when Dataset is set

	// Layout options
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Seed   uint64  `json:"seed,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`
	NoFit   bool     `json:"no_fit,omitempty"` // Keep the world transform instead of framing the nodes
	Labels  *bool    `json:"labels,omitempty"`
	Refresh bool     `json:"refresh,omitempty"` // Ignore cached layouts

	// Runtime options (not serialized)
	Dataset *graph.Dataset `json:"-"`
	Config  *config.Config `json:"-"` // Theme and simulation parameters; defaults when nil
	Logger  *log.Logger    `json:"-"`

	// Progress receives the settle progress in percent after every tick.
	Progress func(percent int) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Dataset is the loaded input.
	Dataset graph.Dataset

	// DatasetHash is the content hash of the dataset.
	DatasetHash string

	// Processed holds the processed nodes, edges and validation issues.
	Processed *process.Result

	// Layout contains the settled positions.
	Layout graph.Layout

	// Scene is the rendered scene the artifacts were drawn from.
	Scene render.Scene

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	IssueCount  int
	Ticks       int
	LoadTime    time.Duration
	ProcessTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the settled layout came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: %s)",
			format, strings.Join(FormatNames, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" && o.Dataset == nil {
		return errors.New(errors.ErrCodeInvalidInput, "input file or dataset is required")
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Config == nil {
		cfg := config.Default()
		o.Config = &cfg
	}
	if o.Width == 0 {
		o.Width = o.Config.Container.Width
	}
	if o.Height == 0 {
		o.Height = o.Config.Container.Height
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must be positive, got %vx%v", o.Width, o.Height)
	}
	if err := o.Config.Layout.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	o.SetLayoutDefaults()
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return o.Config.Theme.Validate()
}

// ShowLabels reports whether node labels are drawn.
func (o *Options) ShowLabels() bool {
	return o.Labels == nil || *o.Labels
}

// Params returns the simulation parameters.
func (o *Options) Params() layout.Params {
	o.SetLayoutDefaults()
	return o.Config.Layout
}

// LayoutKeyOpts returns the inputs that determine settled positions, for
// cache keys.
func (o *Options) LayoutKeyOpts() any {
	return struct {
		Params layout.Params `json:"params"`
		Seed   uint64        `json:"seed"`
	}{o.Params(), o.Seed}
}
