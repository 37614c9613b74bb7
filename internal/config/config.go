// Package config loads the settings a nvol process needs to bind a
// manifest to a data store and start serving cutouts: which backend to
// use, where its credentials live, and the ports the data-plane and
// admin servers listen on.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the top-level settings document, loaded from a YAML file and
// overridden by environment variables.
type Config struct {
	Manifest string        `yaml:"manifest"`
	Store    StoreConfig   `yaml:"store"`
	Cache    CacheConfig   `yaml:"cache"`
	API      APIConfig     `yaml:"api"`
	Admin    AdminConfig   `yaml:"admin"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Gzip     bool          `yaml:"gzip"`
}

// StoreConfig selects and configures the backing data store.
type StoreConfig struct {
	Backend string `yaml:"backend"` // filesystem, s3, azure, gcs

	FilesystemPath string `yaml:"filesystem_path"`

	S3Bucket            string  `yaml:"s3_bucket"`
	S3Region            string  `yaml:"s3_region"`
	S3Endpoint          string  `yaml:"s3_endpoint"`
	S3RequestsPerSecond float64 `yaml:"s3_requests_per_second"`

	AzureContainer        string `yaml:"azure_container"`
	AzureConnectionString string `yaml:"-"` // env only

	GCSBucket string `yaml:"gcs_bucket"`
}

// CacheConfig controls the in-process ristretto read cache in front of
// the store.
type CacheConfig struct {
	Enabled      bool  `yaml:"enabled"`
	MaxCostBytes int64 `yaml:"max_cost_bytes"`
	NumCounters  int64 `yaml:"num_counters"`
}

// APIConfig controls the chi data-plane server.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// AdminConfig controls the gin admin/console server.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// CatalogConfig controls the optional Postgres provenance index.
type CatalogConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"-"` // env only
}

// Default returns a Config suitable for a single-node, filesystem-backed
// deployment with no catalog and a modest cache.
func Default() *Config {
	return &Config{
		Manifest: "info",
		Store: StoreConfig{
			Backend:        "filesystem",
			FilesystemPath: "./data",
		},
		Cache: CacheConfig{
			Enabled:      true,
			MaxCostBytes: 256 << 20,
			NumCounters:  1e6,
		},
		API:   APIConfig{Addr: ":8080"},
		Admin: AdminConfig{Addr: ":8081"},
	}
}

// Load reads path (a YAML file) over Default, then applies environment
// overrides for values that must never live in a checked-in file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NVOL_MANIFEST"); v != "" {
		cfg.Manifest = v
	}
	if v := os.Getenv("NVOL_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("NVOL_API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("NVOL_ADMIN_ADDR"); v != "" {
		cfg.Admin.Addr = v
	}
	cfg.Store.AzureConnectionString = os.Getenv("NVOL_AZURE_CONNECTION_STRING")
	cfg.Catalog.DSN = os.Getenv("NVOL_CATALOG_DSN")
	cfg.Catalog.Enabled = cfg.Catalog.DSN != ""
}
