// Package cache wraps ristretto to provide an optional in-memory block
// byte cache in front of a store.Backend: a hit avoids the backend round
// trip entirely, which matters most for the cloud backends where every
// Get is a network call.
package cache

import (
	"context"

	"github.com/dgraph-io/ristretto"

	"github.com/neurovol/neurovol/internal/logger"
	"github.com/neurovol/neurovol/internal/metrics"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// backend is the subset of store.Backend this decorator needs; declared
// locally to avoid an import cycle with the store package (store does
// not depend on cache; callers compose the two at wiring time).
type backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Type() string
}

// Config controls the underlying ristretto cache sizing.
type Config struct {
	// NumCounters should be roughly 10x the number of blocks expected to
	// be held, per ristretto's sizing guidance.
	NumCounters int64
	// MaxCost bounds total cached bytes.
	MaxCost int64
	// Metrics, if set, receives a CacheHits/CacheMisses increment per Get.
	Metrics *metrics.Metrics
}

// DefaultConfig sizes the cache for a few thousand resident blocks.
func DefaultConfig() Config {
	return Config{NumCounters: 1e6, MaxCost: 256 << 20}
}

// Backend decorates a store.Backend with a ristretto-backed byte cache.
// Reads consult the cache first; writes populate it. Cost is charged in
// bytes of the cached payload.
type Backend struct {
	next    backend
	cache   *ristretto.Cache
	metrics *metrics.Metrics
}

// New wraps next with a ristretto cache sized per cfg.
func New(next backend, cfg Config) (*Backend, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
		OnEvict: func(item *ristretto.Item) {
			logger.Debug("cache: evicted entry, cost=%d", item.Cost)
		},
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to build cache", err)
	}
	return &Backend{next: next, cache: c, metrics: cfg.Metrics}, nil
}

// Type reports the wrapped backend's type unchanged: the cache is
// transparent to callers that branch on backend type.
func (b *Backend) Type() string { return b.next.Type() }

// Get returns a cached copy when present, otherwise reads through to next
// and populates the cache on success.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if v, found := b.cache.Get(key); found {
		if b.metrics != nil {
			b.metrics.CacheHits.Inc()
		}
		return v.([]byte), nil
	}
	if b.metrics != nil {
		b.metrics.CacheMisses.Inc()
	}
	data, err := b.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	b.cache.Set(key, data, int64(len(data)))
	return data, nil
}

// Put writes through to next and refreshes the cache entry.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if err := b.next.Put(ctx, key, data); err != nil {
		return err
	}
	b.cache.Set(key, data, int64(len(data)))
	return nil
}

// Exists delegates to next; existence is cheap enough on every backend
// that caching it isn't worth the staleness risk.
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	return b.next.Exists(ctx, key)
}

// List delegates to next.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	return b.next.List(ctx, prefix)
}

// Invalidate drops key from the cache, for callers that mutate the
// backend outside this decorator (e.g. an admin "purge block" action).
func (b *Backend) Invalidate(key string) { b.cache.Del(key) }
