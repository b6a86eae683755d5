// Package observability provides hooks for metrics, tracing, and logging.
//
// Hooks are plain interfaces with no-op defaults. Components receive them
// through their options; nothing is registered globally, so two engines in
// one process can report to different backends.
//
// # Usage
//
//	hooks := observability.NewLogHooks(logger)
//	runner := pipeline.NewRunner(c, logger, pipeline.WithHooks(hooks))
//
// [LogHooks] implements every hook interface by writing debug records with
// charmbracelet/log.
package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the offline pipeline.
type PipelineHooks interface {
	// Process events
	OnProcessComplete(ctx context.Context, nodes, edges, issues int, duration time.Duration)

	// Layout events
	OnLayoutStart(ctx context.Context, nodeCount int)
	OnLayoutComplete(ctx context.Context, ticks int, cached bool, duration time.Duration)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Bridge Hooks
// =============================================================================

// BridgeHooks receives events from host bridges.
type BridgeHooks interface {
	// OnHandshake records a finished handshake attempt.
	OnHandshake(ctx context.Context, host string, duration time.Duration, err error)

	// OnForward records an event delivered to a host.
	OnForward(kind string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnProcessComplete(context.Context, int, int, int, time.Duration)  {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, int)                               {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, bool, time.Duration)       {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopBridgeHooks is a no-op implementation of BridgeHooks.
type NoopBridgeHooks struct{}

func (NoopBridgeHooks) OnHandshake(context.Context, string, time.Duration, error) {}
func (NoopBridgeHooks) OnForward(string)                                          {}

// =============================================================================
// Log Implementation
// =============================================================================

// LogHooks implements every hook interface with debug log records.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnProcessComplete(_ context.Context, nodes, edges, issues int, d time.Duration) {
	h.logger.Debug("processed", "nodes", nodes, "edges", edges, "issues", issues, "took", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, nodeCount int) {
	h.logger.Debug("layout started", "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, ticks int, cached bool, d time.Duration) {
	h.logger.Debug("layout complete", "ticks", ticks, "cached", cached, "took", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render started", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "formats", formats, "took", d, "err", err)
		return
	}
	h.logger.Debug("render complete", "formats", formats, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnHandshake(_ context.Context, host string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("handshake failed", "host", host, "took", d, "err", err)
		return
	}
	h.logger.Debug("handshake complete", "host", host, "took", d)
}

func (h *LogHooks) OnForward(kind string) {
	h.logger.Debug("event forwarded", "kind", kind)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ BridgeHooks   = (*LogHooks)(nil)
)
