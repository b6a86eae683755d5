package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowgraph/pkg/graph"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if data, hit, err := c.Get(ctx, "key"); hit || data != nil || err != nil {
		t.Errorf("Get = %q, %v, %v; want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCachePaths(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	k := LayoutKey("abc", 800, 600, nil)
	_, digest, _ := strings.Cut(k, ":")

	tests := []struct {
		key  string
		want string
	}{
		{k, filepath.Join(c.Dir(), "layout", digest[:2], digest[2:]+".json")},
		{"plain", ""},
		{"kind:../escape", ""},
	}
	for _, tt := range tests {
		got := c.path(tt.key)
		if tt.want != "" && got != tt.want {
			t.Errorf("path(%q) = %s, want %s", tt.key, got, tt.want)
		}
		if tt.want == "" && !strings.HasPrefix(got, filepath.Join(c.Dir(), "misc")+string(filepath.Separator)) {
			t.Errorf("path(%q) = %s, want under misc/", tt.key, got)
		}
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	for i := range 3 {
		if err := c.Set(ctx, LayoutKey("d", float64(i), 1, nil), []byte("x"), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := c.Set(ctx, "other", []byte("y"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	n, err := c.Clear(KindLayout)
	if err != nil || n != 3 {
		t.Errorf("Clear(layout) = %d, %v; want 3", n, err)
	}
	if _, hit, _ := c.Get(ctx, "other"); !hit {
		t.Error("Clear(layout) removed an entry of another kind")
	}
	if n, err := c.Clear("missing"); err != nil || n != 0 {
		t.Errorf("Clear(missing) = %d, %v", n, err)
	}
	if n, _ := c.Clear(""); n != 1 {
		t.Errorf("Clear(\"\") = %d, want 1", n)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Fatalf("Get on empty cache: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "old", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry returned")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}

	broken := c.path("broken")
	if err := os.MkdirAll(filepath.Dir(broken), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(broken, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "broken"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestLayoutKey(t *testing.T) {
	type params struct{ Repulsion float64 }
	k1 := LayoutKey("abc", 800, 600, params{30})
	tests := []struct {
		name string
		key  string
	}{
		{"dataset", LayoutKey("abd", 800, 600, params{30})},
		{"size", LayoutKey("abc", 801, 600, params{30})},
		{"params", LayoutKey("abc", 800, 600, params{31})},
	}
	for _, tt := range tests {
		if tt.key == k1 {
			t.Errorf("%s change kept key %s", tt.name, k1)
		}
	}
	if LayoutKey("abc", 800, 600, params{30}) != k1 {
		t.Error("LayoutKey is not deterministic")
	}
	if !strings.HasPrefix(k1, "layout:") {
		t.Errorf("key = %s, want layout: prefix", k1)
	}
}

type countingHooks struct{ hits, misses, sets int }

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestLayoutRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	hooks := &countingHooks{}

	if _, ok, err := GetLayout(ctx, c, "key", hooks); ok || err != nil {
		t.Fatalf("GetLayout on empty cache: ok=%v err=%v", ok, err)
	}
	want := graph.Layout{Hash: "h", Width: 100, Height: 50, Ticks: 42, Nodes: []graph.Position{{ID: "a", X: 1, Y: 2}}}
	if err := PutLayout(ctx, c, "key", want, DefaultTTL, hooks); err != nil {
		t.Fatalf("PutLayout: %v", err)
	}
	got, ok, err := GetLayout(ctx, c, "key", hooks)
	if err != nil || !ok {
		t.Fatalf("GetLayout: ok=%v err=%v", ok, err)
	}
	if got.Ticks != 42 || got.Lookup()["a"].Y != 2 {
		t.Errorf("GetLayout = %+v", got)
	}

	_ = c.Set(ctx, "junk", []byte("not json"), 0)
	if _, ok, _ := GetLayout(ctx, c, "junk", hooks); ok {
		t.Error("undecodable entry reported as hit")
	}
	if hooks.hits != 1 || hooks.misses != 2 || hooks.sets != 1 {
		t.Errorf("hooks = %+v", *hooks)
	}
}
