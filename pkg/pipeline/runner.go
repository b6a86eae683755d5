package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/cache"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/process"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the HTTP host use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, logger and hooks - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache      cache.Cache
	Logger     *log.Logger
	Hooks      observability.PipelineHooks
	CacheHooks observability.CacheHooks
}

// NewRunner creates a runner with the given cache.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:      c,
		Logger:     logger,
		Hooks:      observability.NoopPipelineHooks{},
		CacheHooks: observability.NoopCacheHooks{},
	}
}

// Execute runs the complete load → process → settle → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	d, err := Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Dataset = d
	result.DatasetHash = graph.Hash(d)
	result.Stats.LoadTime = time.Since(loadStart)

	// Stage 2: Process
	res := r.Process(ctx, d, opts)
	result.Processed = res
	result.Stats.NodeCount = len(res.Nodes)
	result.Stats.EdgeCount = len(res.Edges)
	result.Stats.IssueCount = len(res.Issues)

	r.Logger.Info("processed dataset",
		"nodes", len(res.Nodes),
		"edges", len(res.Edges),
		"issues", len(res.Issues))

	// Stage 3: Settle
	layoutStart := time.Now()
	l, layoutHit, err := r.SettleWithCacheInfo(ctx, res, result.DatasetHash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.Ticks = l.Ticks
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("settled layout",
		"ticks", l.Ticks,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Render
	renderStart := time.Now()
	r.Hooks.OnRenderStart(ctx, opts.Formats)
	scene, err := BuildScene(res, opts)
	if err == nil {
		result.Scene = scene
		result.Artifacts, err = Render(ctx, scene, l, opts)
	}
	result.Stats.RenderTime = time.Since(renderStart)
	r.Hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Process runs the processing stage and reports it to the hooks.
func (r *Runner) Process(ctx context.Context, d graph.Dataset, opts Options) *process.Result {
	start := time.Now()
	res := Process(d, opts)
	for _, is := range res.Issues {
		r.Logger.Warn("invalid record", "issue", is.String())
	}
	r.Hooks.OnProcessComplete(ctx, len(res.Nodes), len(res.Edges), len(res.Issues), time.Since(start))
	return res
}

// SettleWithCacheInfo positions the nodes of res, from the cache when a
// layout for the same dataset, canvas and parameters is stored, and
// returns whether it was a cache hit.
func (r *Runner) SettleWithCacheInfo(ctx context.Context, res *process.Result, datasetHash string, opts Options) (graph.Layout, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return graph.Layout{}, false, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	r.Hooks.OnLayoutStart(ctx, len(res.Nodes))
	cacheKey := cache.LayoutKey(datasetHash, opts.Width, opts.Height, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		cached, hit, err := cache.GetLayout(ctx, r.Cache, cacheKey, r.CacheHooks)
		if err != nil {
			r.Logger.Warn("layout cache unavailable", "err", err)
		}
		if hit && Apply(res, cached, opts) {
			r.Hooks.OnLayoutComplete(ctx, cached.Ticks, true, time.Since(start))
			return cached, true, nil
		}
	}

	l, err := SettleContext(ctx, res, opts)
	if err != nil {
		return graph.Layout{}, false, err
	}
	l.Hash = datasetHash
	r.Hooks.OnLayoutComplete(ctx, l.Ticks, false, time.Since(start))

	// Cache the result
	if err := cache.PutLayout(ctx, r.Cache, cacheKey, l, cache.DefaultTTL, r.CacheHooks); err != nil {
		r.Logger.Warn("layout not cached", "err", err)
	}
	return l, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
