// Package metrics declares the prometheus collectors exported by a
// running nvol server: cutout request counts and latency, cache hit rate,
// and per-scale block counts. Collectors are registered against whatever
// registry the caller passes to New; the caller mounts a handler over
// that same registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the engine and API layer report to.
type Metrics struct {
	BlockReads       *prometheus.CounterVec
	BlockWrites      *prometheus.CounterVec
	BlockIODuration  *prometheus.HistogramVec
	BlockErrors      *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	ActiveCutouts    prometheus.Gauge
	IndexedBlocks    *prometheus.GaugeVec
}

// New registers the standard collector set against reg and returns it.
// Registering twice against the same registry panics, so each call needs
// its own registry (cmd/nvol and the tests each pass a fresh
// prometheus.NewRegistry()).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BlockReads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nvol",
			Name:      "block_reads_total",
			Help:      "Number of successful cutout read requests, by scale.",
		}, []string{"scale"}),
		BlockWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nvol",
			Name:      "block_writes_total",
			Help:      "Number of successful cutout write requests, by scale.",
		}, []string{"scale"}),
		BlockIODuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nvol",
			Name:      "block_io_duration_seconds",
			Help:      "Latency of a cutout read or write request, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		BlockErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nvol",
			Name:      "block_errors_total",
			Help:      "Number of failed cutout requests, by error code.",
		}, []string{"code"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nvol",
			Name:      "cache_hits_total",
			Help:      "Number of block cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nvol",
			Name:      "cache_misses_total",
			Help:      "Number of block cache misses.",
		}),
		ActiveCutouts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nvol",
			Name:      "active_cutouts",
			Help:      "Number of Put/Get calls currently in flight.",
		}),
		IndexedBlocks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nvol",
			Name:      "indexed_blocks",
			Help:      "Number of blocks currently resident in a scale's BlockIndex.",
		}, []string{"scale"}),
	}
}

// ObserveBlockIO records the time elapsed since start under the given
// operation label (the API passes "get" or "put" once per cutout request).
func (m *Metrics) ObserveBlockIO(op string, start time.Time) {
	m.BlockIODuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
