package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurovol/neurovol/internal/engine"
	"github.com/neurovol/neurovol/internal/manifest"
	"github.com/neurovol/neurovol/internal/metrics"
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
	return New(engine.New(m, ds, engine.Settings{}), nil, nil)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPutThenGetCutoutRoundTrip(t *testing.T) {
	s := newTestServer(t)
	body := bytes.Repeat([]byte{7}, 8*8*8)

	putReq := httptest.NewRequest(http.MethodPut, "/scales/s0/cutout/?x0=0&x1=8&y0=0&y1=8&z0=0&z1=8&dtype=uint8", bytes.NewReader(body))
	putReq.ContentLength = int64(len(body))
	putRec := httptest.NewRecorder()
	s.ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusNoContent, putRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/scales/s0/cutout/?x0=0&x1=8&y0=0&y1=8&z0=0&z1=8&dtype=uint8", nil)
	getRec := httptest.NewRecorder()
	s.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	assert.Equal(t, body, getRec.Body.Bytes())
}

func TestGetCutoutUnknownScaleReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/scales/missing/cutout/?x0=0&x1=8&y0=0&y1=8&z0=0&z1=8&dtype=uint8", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCutoutBadDtypeReturnsBadRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/scales/s0/cutout/?x0=0&x1=8&y0=0&y1=8&z0=0&z1=8&dtype=bogus", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCutoutMissingQueryParamReturnsBadRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/scales/s0/cutout/?x0=0&y0=0&y1=8&z0=0&z1=8&dtype=uint8", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCutoutRequestsIncrementMetrics(t *testing.T) {
	m, err := manifest.Parse([]byte(testManifestJSON))
	require.NoError(t, err)
	backend, err := store.NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)
	ds := store.NewDataStore(backend)
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	s := New(engine.New(m, ds, engine.Settings{}), met, reg)

	body := bytes.Repeat([]byte{7}, 8*8*8)
	putReq := httptest.NewRequest(http.MethodPut, "/scales/s0/cutout/?x0=0&x1=8&y0=0&y1=8&z0=0&z1=8&dtype=uint8", bytes.NewReader(body))
	putReq.ContentLength = int64(len(body))
	putRec := httptest.NewRecorder()
	s.ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusNoContent, putRec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(met.BlockWrites.WithLabelValues("s0")))

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	s.ServeHTTP(metricsRec, metricsReq)
	assert.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "nvol_block_writes_total")
}
