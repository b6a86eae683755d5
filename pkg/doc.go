// Package pkg provides the core libraries for flowgraph, a force-directed
// graph engine.
//
// # Overview
//
// Flowgraph turns node and edge records into a node-link diagram whose
// positions are settled by a physics simulation. Selecting a node floods its
// neighbors with the node's color, one hop at a time. The same engine runs
// live under a host (terminal viewer, HTTP server, external bridge) or
// headless for one-shot exports.
//
// # Architecture
//
// The typical data flow:
//
//	Dataset records (JSON, YAML, TOML)
//	         ↓
//	    [process] package (validate, size, color, resolve edges)
//	         ↓
//	    [layout] package (force simulation, one tick per frame)
//	         ↓
//	    [render] package (retained scene, hit testing, color-flow tweens)
//	         ↓
//	    [render/sink] and [render/nodelink] (SVG, PNG, PDF, JSON, DOT)
//
// [controller] sits on top and owns the selection state machine and the
// serialized transition queue. Everything is driven by one cooperative
// [loop.Loop]; no component starts goroutines of its own.
//
// # Quick Start
//
// Settle a layout and export it:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/flowgraph/pkg/cache"
//	    "github.com/matzehuels/flowgraph/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil)
//	res, _ := runner.Execute(context.Background(), pipeline.Options{
//	    Input:   "graph.json",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	svg := res.Artifacts[pipeline.FormatSVG]
//
// Drive the engine interactively:
//
//	l := loop.New(loop.DefaultFrame)
//	c := controller.New(l, config.Default())
//	c.On(events.KindNodeSelected, func(e events.Event) { ... })
//	c.UpdateData(ctx, dataset)
//	go l.Run(ctx)
//
// # Main Packages
//
// ## Engine
//
// [process] - Validation and normalization of raw records. Malformed records
// are dropped or repaired and reported as issues, never fatal.
//
// [layout] - Force simulation with link, repulsion, centering and collision
// forces. Runs on the scheduler or headless via Settle.
//
// [render] - Retained scene of node and edge elements, pan and zoom, pointer
// interpretation and the color-flow animation.
//
// [events] - Typed publish/subscribe bus with a closed set of event kinds.
//
// [controller] - Lifecycle (Initialize, UpdateData, Cleanup) and selection.
//
// [loop] - Single-goroutine scheduler with timers, frame callbacks and futures.
//
// ## Hosts
//
// [bridge] - Host interface, handshake with timeout and event forwarding.
// [bridge/redisbridge] publishes events on a Redis channel.
//
// ## Offline
//
// [pipeline] - Load, process, settle and render used by the CLI and tests.
//
// [cache] - Settled layout cache with file, Redis and null backends.
//
// ## Support
//
// [graph] - Dataset and layout serialization.
//
// [config] - Engine configuration from TOML or YAML.
//
// [errors] - Coded errors and validation issues.
//
// [observability] - Hooks for logging and metrics.
package pkg
