// Package config holds the engine configuration: theme, layout parameters,
// selection and animation behavior, container polling and the bridge
// handshake timeout.
//
// [Default] is the single source of truth for defaults. Files are TOML or
// YAML, chosen by extension, and only need to name the keys they change:
//
//	[selection]
//	dim_others = false
//
//	[animation]
//	duration = "450ms"
//
//	[layout]
//	repulsion = 45.0
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/layout"
	"github.com/matzehuels/flowgraph/pkg/render"
)

// DefaultBridgeTimeout bounds the host handshake.
const DefaultBridgeTimeout = 5 * time.Second

// Config is the full engine configuration.
type Config struct {
	Theme     render.Theme  `toml:"theme" yaml:"theme" json:"theme"`
	Layout    layout.Params `toml:"layout" yaml:"layout" json:"layout"`
	Selection Selection     `toml:"selection" yaml:"selection" json:"selection"`
	Animation Animation     `toml:"animation" yaml:"animation" json:"animation"`
	Container Container     `toml:"container" yaml:"container" json:"container"`
	Bridge    Bridge        `toml:"bridge" yaml:"bridge" json:"bridge"`
}

// Selection controls how selected nodes are shown.
type Selection struct {
	// PreserveOpacity keeps selected nodes fully opaque while hovering dims
	// the rest.
	PreserveOpacity bool `toml:"preserve_opacity" yaml:"preserve_opacity" json:"preserve_opacity"`
	// DimOthers dims nodes outside the hover set.
	DimOthers bool `toml:"dim_others" yaml:"dim_others" json:"dim_others"`
	// ColorFlow spreads the selection color to neighbors as a wave.
	ColorFlow bool `toml:"color_flow" yaml:"color_flow" json:"color_flow"`
}

// Animation controls color-flow timing.
type Animation struct {
	Duration     Duration `toml:"duration" yaml:"duration" json:"duration"`
	StaggerDelay Duration `toml:"stagger_delay" yaml:"stagger_delay" json:"stagger_delay"`
}

// Container controls the drawing surface.
type Container struct {
	Width        float64  `toml:"width" yaml:"width" json:"width"`
	Height       float64  `toml:"height" yaml:"height" json:"height"`
	PollAttempts int      `toml:"poll_attempts" yaml:"poll_attempts" json:"poll_attempts"`
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval" json:"poll_interval"`
}

// Bridge controls host connection.
type Bridge struct {
	Timeout Duration `toml:"timeout" yaml:"timeout" json:"timeout"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Theme:  render.DefaultTheme(),
		Layout: layout.DefaultParams(),
		Selection: Selection{
			PreserveOpacity: true,
			DimOthers:       true,
			ColorFlow:       true,
		},
		Animation: Animation{
			Duration: Duration(render.DefaultDuration),
		},
		Container: Container{
			Width:        800,
			Height:       600,
			PollAttempts: render.DefaultPollAttempts,
			PollInterval: Duration(render.DefaultPollInterval),
		},
		Bridge: Bridge{
			Timeout: Duration(DefaultBridgeTimeout),
		},
	}
}

// Load reads a TOML or YAML file over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Theme.Validate(); err != nil {
		return err
	}
	if err := c.Layout.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout")
	}
	switch {
	case c.Animation.Duration < 0 || c.Animation.StaggerDelay < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "animation durations must not be negative")
	case c.Container.Width <= 0 || c.Container.Height <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "container size must be positive, got %vx%v", c.Container.Width, c.Container.Height)
	case c.Container.PollAttempts < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "container.poll_attempts must be at least 1")
	case c.Container.PollInterval <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "container.poll_interval must be positive")
	case c.Bridge.Timeout <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "bridge.timeout must be positive")
	}
	return nil
}

// Encode writes the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode config")
	}
	return []byte(b.String()), nil
}

// Duration is a time.Duration written as a string such as "300ms".
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
