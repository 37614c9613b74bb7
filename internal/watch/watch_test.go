package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurovol/neurovol/internal/manifest"
)

const initialManifest = `{"type":"image","data_type":"uint8","num_channels":1,"scales":[{"key":"s0","size":[1,1,1],"chunk_sizes":[[1,1,1]],"encoding":"raw"}]}`
const updatedManifest = `{"type":"image","data_type":"uint16","num_channels":1,"scales":[{"key":"s0","size":[1,1,1],"chunk_sizes":[[1,1,1]],"encoding":"raw"}]}`

func TestManifestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info")
	require.NoError(t, os.WriteFile(path, []byte(initialManifest), 0o644))

	reloaded := make(chan *manifest.Manifest, 1)
	w, err := NewFileWatcher(path, func(m *manifest.Manifest) { reloaded <- m })
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte(updatedManifest), 0o644))

	select {
	case m := <-reloaded:
		assert.Equal(t, "uint16", m.DataType.String())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for manifest reload")
	}
}
