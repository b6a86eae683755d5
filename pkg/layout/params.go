package layout

import (
	"fmt"
	"math"
)

// Default simulation parameters.
const (
	DefaultRepulsion     = 30.0
	DefaultHubExponent   = 0.5
	DefaultMinDistance   = 1.0
	DefaultMaxDistance   = 1200.0
	DefaultCentering     = 0.05
	DefaultCollision     = 0.95
	DefaultLinkStrength  = 1.0
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	DefaultMaxTicks      = 300
)

// DefaultAlphaDecay makes alpha reach DefaultAlphaMin after DefaultMaxTicks.
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/DefaultMaxTicks)

// Params are the force and energy parameters of the simulation.
type Params struct {
	// Repulsion is the base many-body strength. A node of degree d repels
	// with Repulsion * (1+d)^HubExponent.
	Repulsion   float64 `toml:"repulsion" yaml:"repulsion" json:"repulsion"`
	HubExponent float64 `toml:"hub_exponent" yaml:"hub_exponent" json:"hub_exponent"`
	// MinDistance and MaxDistance bound the repulsion range. Pairs closer
	// than MinDistance are treated as MinDistance apart, pairs beyond
	// MaxDistance do not interact.
	MinDistance float64 `toml:"min_distance" yaml:"min_distance" json:"min_distance"`
	MaxDistance float64 `toml:"max_distance" yaml:"max_distance" json:"max_distance"`

	Centering    float64 `toml:"centering" yaml:"centering" json:"centering"`
	Collision    float64 `toml:"collision" yaml:"collision" json:"collision"`
	LinkStrength float64 `toml:"link_strength" yaml:"link_strength" json:"link_strength"`

	AlphaMin      float64 `toml:"alpha_min" yaml:"alpha_min" json:"alpha_min"`
	AlphaDecay    float64 `toml:"alpha_decay" yaml:"alpha_decay" json:"alpha_decay"`
	VelocityDecay float64 `toml:"velocity_decay" yaml:"velocity_decay" json:"velocity_decay"`
	MaxTicks      int     `toml:"max_ticks" yaml:"max_ticks" json:"max_ticks"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Repulsion:     DefaultRepulsion,
		HubExponent:   DefaultHubExponent,
		MinDistance:   DefaultMinDistance,
		MaxDistance:   DefaultMaxDistance,
		Centering:     DefaultCentering,
		Collision:     DefaultCollision,
		LinkStrength:  DefaultLinkStrength,
		AlphaMin:      DefaultAlphaMin,
		AlphaDecay:    DefaultAlphaDecay,
		VelocityDecay: DefaultVelocityDecay,
		MaxTicks:      DefaultMaxTicks,
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	switch {
	case p.MaxTicks <= 0:
		return fmt.Errorf("max_ticks must be positive, got %d", p.MaxTicks)
	case p.MinDistance < 0 || p.MaxDistance <= p.MinDistance:
		return fmt.Errorf("distance bounds must satisfy 0 <= min < max, got [%v, %v]", p.MinDistance, p.MaxDistance)
	case p.AlphaDecay <= 0 || p.AlphaDecay >= 1:
		return fmt.Errorf("alpha_decay must be in (0, 1), got %v", p.AlphaDecay)
	case p.AlphaMin <= 0 || p.AlphaMin >= 1:
		return fmt.Errorf("alpha_min must be in (0, 1), got %v", p.AlphaMin)
	case p.VelocityDecay < 0 || p.VelocityDecay > 1:
		return fmt.Errorf("velocity_decay must be in [0, 1], got %v", p.VelocityDecay)
	case p.Collision < 0 || p.Collision > 1:
		return fmt.Errorf("collision must be in [0, 1], got %v", p.Collision)
	}
	return nil
}
