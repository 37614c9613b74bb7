// Package store implements the pluggable data-store abstraction: a
// Backend reads and writes raw bytes by key, and DataStore layers the
// manifest/block naming convention on top of a Backend so that it
// satisfies block.Store directly.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neurovol/neurovol/internal/block"
	"github.com/neurovol/neurovol/internal/codec"
	"github.com/neurovol/neurovol/internal/geom"
	"github.com/neurovol/neurovol/internal/logger"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// Backend is a raw byte-oriented key/value store. Every concrete backend
// (filesystem, S3, Azure, GCS) implements this and nothing more; naming
// and block semantics live in DataStore.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Type() string
}

const manifestKey = "info"

// DataStore binds a Backend to the manifest/block naming convention and
// implements block.Store so Blocks can read and write through it
// directly.
type DataStore struct {
	backend Backend
}

// NewDataStore wraps backend in the manifest/block naming convention.
func NewDataStore(backend Backend) *DataStore {
	return &DataStore{backend: backend}
}

// Backend returns the underlying raw backend, for callers that need to
// browse keys directly.
func (ds *DataStore) Backend() Backend { return ds.backend }

func (ds *DataStore) blockKey(scaleKey, name string) string {
	return scaleKey + "/" + name
}

// GetManifest fetches the dataset's top-level manifest ("info") bytes.
func (ds *DataStore) GetManifest(ctx context.Context) ([]byte, error) {
	data, err := ds.backend.Get(ctx, manifestKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to read manifest", err)
	}
	return data, nil
}

// PutManifest writes the dataset's top-level manifest bytes.
func (ds *DataStore) PutManifest(ctx context.Context, data []byte) error {
	if err := ds.backend.Put(ctx, manifestKey, data); err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to write manifest", err)
	}
	return nil
}

// ReadBlock implements block.Store.
func (ds *DataStore) ReadBlock(ctx context.Context, scaleKey, name string) ([]byte, bool, error) {
	key := ds.blockKey(scaleKey, name)
	exists, err := ds.backend.Exists(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	data, err := ds.backend.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// WriteBlock implements block.Store.
func (ds *DataStore) WriteBlock(ctx context.Context, scaleKey, name string, data []byte) error {
	return ds.backend.Put(ctx, ds.blockKey(scaleKey, name), data)
}

// GetBlock looks up an existing block by name, returning found=false if
// no bytes are backing it yet.
func (ds *DataStore) GetBlock(ctx context.Context, scaleKey, name string, xdim, ydim, zdim int, dtype codec.DataType, encoding codec.Encoding, settings block.Settings) (*block.Block, bool, error) {
	key := ds.blockKey(scaleKey, name)
	exists, err := ds.backend.Exists(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	return block.New(ds, scaleKey, name, xdim, ydim, zdim, dtype, encoding, settings), true, nil
}

// CreateBlock returns the existing block by name, or a freshly
// zero-filled one if none exists yet.
func (ds *DataStore) CreateBlock(ctx context.Context, scaleKey, name string, xdim, ydim, zdim int, dtype codec.DataType, encoding codec.Encoding, settings block.Settings) (*block.Block, error) {
	b, found, err := ds.GetBlock(ctx, scaleKey, name, xdim, ydim, zdim, dtype, encoding, settings)
	if err != nil {
		return nil, err
	}
	if found {
		return b, nil
	}
	b = block.New(ds, scaleKey, name, xdim, ydim, zdim, dtype, encoding, settings)
	b.ZeroBlock()
	return b, nil
}

// BlockName formats the canonical block name "x0-x1_y0-y1_z0-z1" in the
// global (voxel-offset-shifted) coordinate frame.
func BlockName(start, end, voxelOffset geom.Vec3) string {
	return fmt.Sprintf("%d-%d_%d-%d_%d-%d",
		start[0]+voxelOffset[0], end[0]+voxelOffset[0],
		start[1]+voxelOffset[1], end[1]+voxelOffset[1],
		start[2]+voxelOffset[2], end[2]+voxelOffset[2])
}

// ManagerConfig controls the Manager's cache/fallback/retry behavior.
type ManagerConfig struct {
	EnableCache    bool
	EnableFallback bool
	SyncEnabled    bool
	RetryAttempts  int
	RetryDelay     time.Duration
}

// Manager composes a primary Backend with an optional cache and an
// optional fallback. Failed primary writes are retried before giving up;
// reads try the primary once.
type Manager struct {
	primary  Backend
	fallback Backend
	cache    Backend
	cfg      ManagerConfig
}

// NewManager wraps primary; a nil cfg takes the default (3 write attempts,
// 1s delay between them, cache/fallback disabled until set).
func NewManager(primary Backend, cfg *ManagerConfig) *Manager {
	if cfg == nil {
		cfg = &ManagerConfig{RetryAttempts: 3, RetryDelay: time.Second}
	}
	return &Manager{primary: primary, cfg: *cfg}
}

// SetFallback installs a backend consulted when the primary fails.
func (m *Manager) SetFallback(b Backend) { m.fallback = b; m.cfg.EnableFallback = true }

// SetCache installs a backend consulted before the primary.
func (m *Manager) SetCache(b Backend) { m.cache = b; m.cfg.EnableCache = true }

// Type reports the primary backend's type.
func (m *Manager) Type() string { return m.primary.Type() }

// Get consults the cache, then the primary, then the fallback.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	if m.cache != nil && m.cfg.EnableCache {
		if data, err := m.cache.Get(ctx, key); err == nil {
			return data, nil
		}
	}

	data, err := m.primary.Get(ctx, key)
	if err == nil {
		if m.cache != nil && m.cfg.EnableCache {
			_ = m.cache.Put(ctx, key, data)
		}
		return data, nil
	}

	if m.fallback != nil && m.cfg.EnableFallback {
		data, ferr := m.fallback.Get(ctx, key)
		if ferr == nil {
			if m.cfg.SyncEnabled {
				_ = m.primary.Put(ctx, key, data)
			}
			if m.cache != nil && m.cfg.EnableCache {
				_ = m.cache.Put(ctx, key, data)
			}
			return data, nil
		}
	}

	return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to get "+key, err)
}

// Put tries the primary up to RetryAttempts times in total, sleeping
// RetryDelay between attempts, falling back to the fallback backend only
// once every attempt on the primary has failed.
func (m *Manager) Put(ctx context.Context, key string, data []byte) error {
	var lastErr error
	attempts := m.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err := m.primary.Put(ctx, key, data); err == nil {
			if m.cache != nil && m.cfg.EnableCache {
				_ = m.cache.Put(ctx, key, data)
			}
			if m.fallback != nil && m.cfg.SyncEnabled {
				_ = m.fallback.Put(ctx, key, data)
			}
			return nil
		} else {
			lastErr = err
			if i < attempts-1 {
				logger.Warn("store: put %s failed (attempt %d/%d), retrying: %v", key, i+1, attempts, err)
				time.Sleep(m.cfg.RetryDelay)
			}
		}
	}

	if m.fallback != nil && m.cfg.EnableFallback {
		if err := m.fallback.Put(ctx, key, data); err == nil {
			return nil
		}
	}

	return apperrors.Wrap(apperrors.CodeIOFailure, fmt.Sprintf("failed to put %s after %d attempts", key, attempts), lastErr)
}

// Exists consults the cache, then the primary.
func (m *Manager) Exists(ctx context.Context, key string) (bool, error) {
	if m.cache != nil && m.cfg.EnableCache {
		if ok, err := m.cache.Exists(ctx, key); err == nil && ok {
			return true, nil
		}
	}
	return m.primary.Exists(ctx, key)
}

// List delegates to the primary backend.
func (m *Manager) List(ctx context.Context, prefix string) ([]string, error) {
	return m.primary.List(ctx, prefix)
}
