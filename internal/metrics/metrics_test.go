package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBlockReadsIncrementsByScale(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.BlockReads.WithLabelValues("s0").Inc()
	m.BlockReads.WithLabelValues("s0").Inc()
	m.BlockReads.WithLabelValues("s1").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.BlockReads.WithLabelValues("s0")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BlockReads.WithLabelValues("s1")))
}

func TestObserveBlockIORecordsDuration(t *testing.T) {
	m := New(prometheus.NewRegistry())
	start := time.Now().Add(-5 * time.Millisecond)
	m.ObserveBlockIO("read", start)

	count := testutil.CollectAndCount(m.BlockIODuration)
	assert.Equal(t, 1, count)
}

func TestCacheCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CacheHits.Inc()
	m.CacheMisses.Inc()
	m.CacheMisses.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheMisses))
}
