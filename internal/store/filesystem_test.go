package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemBackendPutGetRoundTrip(t *testing.T) {
	backend, err := NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "s0/blk", []byte("payload")))

	exists, err := backend.Exists(ctx, "s0/blk")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := backend.Get(ctx, "s0/blk")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestFilesystemBackendGetMissingIsNotFound(t *testing.T) {
	backend, err := NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)

	_, err = backend.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestFilesystemBackendListSorted(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFilesystemBackend(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "s0/b", []byte("b")))
	require.NoError(t, backend.Put(ctx, "s0/a", []byte("a")))

	keys, err := backend.List(ctx, "s0")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.ToSlash("s0/a"), filepath.ToSlash("s0/b")}, keys)
}

func TestDataStoreBlockRoundTrip(t *testing.T) {
	backend, err := NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)
	ds := NewDataStore(backend)

	ctx := context.Background()
	raw, found, err := ds.ReadBlock(ctx, "s0", "blk")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, ds.WriteBlock(ctx, "s0", "blk", []byte("bytes")))
	raw, found, err = ds.ReadBlock(ctx, "s0", "blk")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("bytes"), raw)
}

func TestDataStoreManifestRoundTrip(t *testing.T) {
	backend, err := NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)
	ds := NewDataStore(backend)

	ctx := context.Background()
	require.NoError(t, ds.PutManifest(ctx, []byte(`{"type":"image"}`)))
	data, err := ds.GetManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"image"}`, string(data))
}
