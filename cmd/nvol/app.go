package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/neurovol/neurovol/internal/cache"
	"github.com/neurovol/neurovol/internal/catalog"
	"github.com/neurovol/neurovol/internal/config"
	"github.com/neurovol/neurovol/internal/engine"
	"github.com/neurovol/neurovol/internal/manifest"
	"github.com/neurovol/neurovol/internal/metrics"
	"github.com/neurovol/neurovol/internal/store"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// loadConfig reads the --config flag (if set) over config.Default, then
// applies NVOL_* environment overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// app is the set of bound components a CLI command runs against: a
// store, the parsed manifest, the engine built over both, and an
// optional catalog side-index.
type app struct {
	cfg      *config.Config
	backend  store.Backend
	ds       *store.DataStore
	eng      *engine.Engine
	cat      *catalog.Catalog
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

// buildBackend constructs the configured backend. Network backends (s3,
// azure, gcs) are wrapped in a store.Manager, which retries failed writes
// with a fixed delay between attempts (reads are not retried); the
// filesystem backend has no transient failure mode worth retrying, so
// it's returned bare.
func buildBackend(cfg *config.Config) (store.Backend, error) {
	ctx := context.Background()
	switch cfg.Store.Backend {
	case "filesystem", "":
		return store.NewFilesystemBackend(cfg.Store.FilesystemPath)
	case "s3":
		backend, err := store.NewS3Backend(ctx, &store.S3Config{
			Bucket:            cfg.Store.S3Bucket,
			Region:            cfg.Store.S3Region,
			Endpoint:          cfg.Store.S3Endpoint,
			RequestsPerSecond: cfg.Store.S3RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		return store.NewManager(backend, nil), nil
	case "azure":
		backend, err := store.NewAzureBackend(ctx, &store.AzureConfig{
			ContainerName:    cfg.Store.AzureContainer,
			ConnectionString: cfg.Store.AzureConnectionString,
		})
		if err != nil {
			return nil, err
		}
		return store.NewManager(backend, nil), nil
	case "gcs":
		backend, err := store.NewGCSBackend(ctx, &store.GCSConfig{BucketName: cfg.Store.GCSBucket})
		if err != nil {
			return nil, err
		}
		return store.NewManager(backend, nil), nil
	default:
		return nil, apperrors.New(apperrors.CodeInvalidInput, "unknown store backend: "+cfg.Store.Backend)
	}
}

// newApp wires a backend, optionally wraps it with a ristretto read
// cache, loads and parses the manifest, and builds the Engine over it.
func newApp(cfg *config.Config) (*app, error) {
	registry := prometheus.NewRegistry()
	met := metrics.New(registry)

	backend, err := buildBackend(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		cached, err := cache.New(backend, cache.Config{
			NumCounters: cfg.Cache.NumCounters,
			MaxCost:     cfg.Cache.MaxCostBytes,
			Metrics:     met,
		})
		if err != nil {
			return nil, err
		}
		backend = cached
	}

	ds := store.NewDataStore(backend)

	ctx := context.Background()
	raw, err := ds.GetManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	m, err := manifest.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	eng := engine.New(m, ds, engine.Settings{Gzip: cfg.Gzip})

	a := &app{cfg: cfg, backend: backend, ds: ds, eng: eng, metrics: met, registry: registry}

	if cfg.Catalog.Enabled {
		cat, err := catalog.Open(cfg.Catalog.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening catalog: %w", err)
		}
		if err := cat.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrating catalog: %w", err)
		}
		a.cat = cat
	}

	return a, nil
}

func (a *app) Close() error {
	if a.cat != nil {
		return a.cat.Close()
	}
	return nil
}
