package graph

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// =============================================================================
// Layout - Settled Node Positions
// =============================================================================

// Layout is the serialization format for a settled layout: the solved
// position of every node for one dataset. It is what the layout cache stores
// and what hosts load to skip re-simulation.
type Layout struct {
	Hash   string     `json:"hash,omitempty"` // Dataset hash the positions were solved for
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Ticks  int        `json:"ticks,omitempty"` // Ticks the simulation ran before settling
	Nodes  []Position `json:"nodes"`
}

// Position is the solved position of one node.
type Position struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Lookup returns the positions keyed by node id.
func (l Layout) Lookup() map[string]Position {
	m := make(map[string]Position, len(l.Nodes))
	for _, p := range l.Nodes {
		m[p.ID] = p
	}
	return m
}

// MarshalLayout encodes a layout as JSON.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.Marshal(l)
}

// UnmarshalLayout decodes a layout from JSON.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}

// ReadLayoutFile reads a layout JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}

// WriteLayoutFile writes a layout as indented JSON.
func WriteLayoutFile(l Layout, path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
