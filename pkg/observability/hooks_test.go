package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnProcessComplete(ctx, 3, 2, 0, time.Millisecond)
	p.OnLayoutStart(ctx, 3)
	p.OnLayoutComplete(ctx, 120, false, time.Second)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "layout", 1024)

	// Bridge hooks
	b := NoopBridgeHooks{}
	b.OnHandshake(ctx, "redis", time.Millisecond, nil)
	b.OnForward("nodeSelected")
}

func TestLogHooks(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	h := NewLogHooks(logger)

	tests := []struct {
		name string
		call func()
		want string
	}{
		{"layout", func() { h.OnLayoutComplete(ctx, 120, true, time.Second) }, "layout complete"},
		{"render failure", func() { h.OnRenderComplete(ctx, []string{"pdf"}, 0, errors.New("boom")) }, "render failed"},
		{"cache", func() { h.OnCacheMiss(ctx, "layout") }, "cache miss"},
		{"handshake", func() { h.OnHandshake(ctx, "redis", 0, nil) }, "handshake complete"},
		{"forward", func() { h.OnForward("zoomChanged") }, "zoomChanged"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.call()
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("log = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
