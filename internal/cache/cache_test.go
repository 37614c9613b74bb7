package cache

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurovol/neurovol/internal/metrics"
)

type memBackend struct {
	data  map[string][]byte
	gets  int
}

func (m *memBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.gets++
	return m.data[key], nil
}
func (m *memBackend) Put(ctx context.Context, key string, data []byte) error {
	m.data[key] = data
	return nil
}
func (m *memBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}
func (m *memBackend) List(ctx context.Context, prefix string) ([]string, error) { return nil, nil }
func (m *memBackend) Type() string                                             { return "mem" }

func TestGetPopulatesCacheOnMiss(t *testing.T) {
	mem := &memBackend{data: map[string][]byte{"k": []byte("v")}}
	c, err := New(mem, DefaultConfig())
	require.NoError(t, err)

	ctx := context.Background()
	data, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
	assert.Equal(t, 1, mem.gets)

	c.cache.Wait()
	data, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
	assert.Equal(t, 1, mem.gets, "second read should be served from cache")
}

func TestPutRefreshesCacheEntry(t *testing.T) {
	mem := &memBackend{data: map[string][]byte{}}
	c, err := New(mem, DefaultConfig())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "k", []byte("v1")))
	c.cache.Wait()

	data, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)
	assert.Equal(t, 0, mem.gets, "cached put should avoid a backend read")
}

func TestGetRecordsHitsAndMisses(t *testing.T) {
	mem := &memBackend{data: map[string][]byte{"k": []byte("v")}}
	m := metrics.New(prometheus.NewRegistry())
	c, err := New(mem, Config{NumCounters: 1e4, MaxCost: 1 << 20, Metrics: m})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMisses))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.CacheHits))

	c.cache.Wait()
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHits))
}

func TestInvalidateForcesReread(t *testing.T) {
	mem := &memBackend{data: map[string][]byte{"k": []byte("v")}}
	c, err := New(mem, DefaultConfig())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)
	c.cache.Wait()

	c.Invalidate("k")
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, mem.gets)
}
