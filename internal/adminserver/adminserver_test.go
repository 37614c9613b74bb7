package adminserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurovol/neurovol/internal/engine"
	"github.com/neurovol/neurovol/internal/manifest"
	"github.com/neurovol/neurovol/internal/store"
)

const testManifestJSON = `{
	"type": "image",
	"data_type": "uint8",
	"num_channels": 1,
	"scales": [
		{
			"key": "s0",
			"size": [16, 16, 16],
			"voxel_offset": [0, 0, 0],
			"resolution": [1, 1, 1],
			"chunk_sizes": [[8, 8, 8]],
			"encoding": "raw"
		}
	]
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m, err := manifest.Parse([]byte(testManifestJSON))
	require.NoError(t, err)
	backend, err := store.NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)
	ds := store.NewDataStore(backend)
	return New(engine.New(m, ds, engine.Settings{}), nil)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListScalesIncludesDeclaredScale(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/scales", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Scales []scaleSummary `json:"scales"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Scales, 1)
	assert.Equal(t, "s0", body.Scales[0].Key)
	assert.Equal(t, [3]int64{8, 8, 8}, body.Scales[0].ChunkSize)
}

func TestGetScaleUnknownReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/scales/missing", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetScaleKnownReturnsDetail(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/scales/s0", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got scaleSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "s0", got.Key)
	assert.Equal(t, 0, got.IndexedBlocks)
}
