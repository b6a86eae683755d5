// Package cache stores settled layouts so repeated renders of the same
// dataset skip the force simulation.
//
// # Backends
//
//   - [FileCache]: one JSON file per key under a directory (CLI)
//   - [RedisCache]: shared cache for several serve instances
//   - [NullCache]: disabled caching
//
// # Keys
//
// [LayoutKey] derives a key from the dataset hash ([graph.Hash]), the canvas
// size and the simulation parameters, so any change that would move nodes
// yields a new key.
//
//	key := cache.LayoutKey(graph.Hash(d), 800, 600, params)
//	l, ok, err := cache.GetLayout(ctx, c, key)
//
// [graph.Hash]: github.com/matzehuels/flowgraph/pkg/graph.Hash
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/graph"
	"github.com/matzehuels/flowgraph/pkg/observability"
)

// DefaultTTL is how long a settled layout stays cached.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// KindLayout is the key kind of settled layouts.
const KindLayout = "layout"

// LayoutKey derives the cache key of a settled layout.
func LayoutKey(datasetHash string, width, height float64, params any) string {
	return key(KindLayout, datasetHash, width, height, params)
}

// key is kind:sha256(json(parts)).
func key(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + digestOf(string(data))
}

func digestOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// NullCache never stores anything. It backs --no-cache.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() NullCache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}

// GetLayout loads a cached layout. Undecodable entries count as misses.
func GetLayout(ctx context.Context, c Cache, key string, hooks observability.CacheHooks) (graph.Layout, bool, error) {
	if hooks == nil {
		hooks = observability.NoopCacheHooks{}
	}
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return graph.Layout{}, false, errors.Wrap(errors.ErrCodeInternal, err, "read layout cache")
	}
	if !ok {
		hooks.OnCacheMiss(ctx, "layout")
		return graph.Layout{}, false, nil
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		_ = c.Delete(ctx, key)
		hooks.OnCacheMiss(ctx, "layout")
		return graph.Layout{}, false, nil
	}
	hooks.OnCacheHit(ctx, "layout")
	return l, true, nil
}

// PutLayout stores a settled layout.
func PutLayout(ctx context.Context, c Cache, key string, l graph.Layout, ttl time.Duration, hooks observability.CacheHooks) error {
	if hooks == nil {
		hooks = observability.NoopCacheHooks{}
	}
	data, err := graph.MarshalLayout(l)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write layout cache")
	}
	hooks.OnCacheSet(ctx, "layout", len(data))
	return nil
}
