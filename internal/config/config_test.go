package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "filesystem", cfg.Store.Backend)
	assert.Equal(t, ":8080", cfg.API.Addr)
}

func TestLoadOverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nvol.yaml")
	require.NoError(t, os.WriteFile(path, []byte("manifest: /data/info\nstore:\n  backend: s3\n  s3_bucket: my-bucket\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/info", cfg.Manifest)
	assert.Equal(t, "s3", cfg.Store.Backend)
	assert.Equal(t, "my-bucket", cfg.Store.S3Bucket)
}

func TestLoadAppliesEnvOverride(t *testing.T) {
	t.Setenv("NVOL_API_ADDR", ":9999")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.API.Addr)
}

func TestCatalogEnabledWhenDSNPresent(t *testing.T) {
	t.Setenv("NVOL_CATALOG_DSN", "postgres://localhost/nvol")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Catalog.Enabled)
}
