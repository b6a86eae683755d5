package graph

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Dataset file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Formats lists the supported dataset formats in preference order.
var Formats = []string{FormatJSON, FormatYAML, FormatTOML}

// =============================================================================
// Dataset - Raw Input Records
// =============================================================================

// Dataset is the raw input handed to the engine: node and edge records as the
// host supplied them. Nothing is validated at this layer; malformed records
// are reported later by the processor.
type Dataset struct {
	Nodes []Node `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges" toml:"edges"`
}

// Node is one raw node record.
//
// Value drives the visual size and is kept untyped so that non-numeric
// values survive decoding and can be reported rather than rejected.
// A nil Value means the record carried none.
type Node struct {
	ID    string `json:"id" yaml:"id" toml:"id"`
	Label string `json:"label" yaml:"label" toml:"label"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"` // #rrggbb; generated when empty
}

// Edge is one raw edge record. Direction is recorded but only affects the
// stable element key; degree counting is symmetric.
type Edge struct {
	From  string `json:"from" yaml:"from" toml:"from"`
	To    string `json:"to" yaml:"to" toml:"to"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
}

// NodeIDs returns the ids of all node records in input order.
func (d Dataset) NodeIDs() []string {
	ids := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Empty reports whether the dataset has no records at all.
func (d Dataset) Empty() bool {
	return len(d.Nodes) == 0 && len(d.Edges) == 0
}
