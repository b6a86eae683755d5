// Package graph provides the raw input records and serialization formats
// for flowgraph datasets.
//
// A [Dataset] is what a host hands to the engine: a list of [Node] records
// and a list of [Edge] records. Records are decoded as-is; validation,
// sizing and coloring happen later in package process, which reports
// malformed records instead of rejecting the whole dataset.
//
// # Formats
//
// Datasets can be stored as JSON, YAML or TOML:
//
//	{
//	  "nodes": [{"id": "a", "label": "Alpha", "value": 10}],
//	  "edges": [{"from": "a", "to": "b", "value": 3}]
//	}
//
// Common operations:
//
//	d, _ := graph.ReadFile("data.yaml")        // File → Dataset
//	graph.Write(d, os.Stdout, graph.FormatTOML) // Dataset → TOML
//	key := graph.Hash(d)                       // Content hash for caching
//
// # Layouts
//
// A [Layout] records the settled position of every node. It is stored by
// the layout cache and can be exported so hosts skip re-simulation.
package graph
