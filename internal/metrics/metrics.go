// Package metrics wires seqlog's internals to Prometheus: a small struct
// of collectors built with promauto.With(registerer), defaulting to a
// private registry so an unmounted Log costs nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector seqlog reports. A nil *Metrics (returned by
// New(nil) never happens; use NewNop for that) is never handed out, so
// call sites never need nil checks.
type Metrics struct {
	AppendsTotal        *prometheus.CounterVec
	BytesWrittenTotal    prometheus.Counter
	SegmentRollsTotal    prometheus.Counter
	ReadsTotal           *prometheus.CounterVec
	LockContentionTotal  *prometheus.CounterVec
	SyncDuration         prometheus.Histogram
	SyncedBytesTotal     prometheus.Counter
	OpenSegments         prometheus.Gauge
}

// New creates a Metrics collection registered against registerer. Passing
// nil registers against a private, unreferenced registry — the collectors
// work but nothing ever scrapes them.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	f := promauto.With(registerer)

	return &Metrics{
		AppendsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seqlog_appends_total",
			Help: "Total number of append attempts, partitioned by outcome.",
		}, []string{"outcome"}),
		BytesWrittenTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "seqlog_bytes_written_total",
			Help: "Total payload bytes appended across all segments.",
		}),
		SegmentRollsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "seqlog_segment_rolls_total",
			Help: "Total number of segment rollovers performed on EOS.",
		}),
		ReadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seqlog_reads_total",
			Help: "Total number of read attempts, partitioned by outcome.",
		}, []string{"outcome"}),
		LockContentionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "seqlog_lock_contention_total",
			Help: "Total number of try-lock failures, partitioned by lock.",
		}, []string{"lock"}),
		SyncDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "seqlog_sync_duration_seconds",
			Help:    "Duration of msync calls against the active segment.",
			Buckets: prometheus.DefBuckets,
		}),
		SyncedBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "seqlog_synced_bytes_total",
			Help: "Total bytes made durable via msync.",
		}),
		OpenSegments: f.NewGauge(prometheus.GaugeOpts{
			Name: "seqlog_open_segments",
			Help: "Number of segments currently mapped into memory.",
		}),
	}
}

// NewNop returns a Metrics collection bound to a scratch registry, for
// callers (mainly tests) that want the collectors to exist without caring
// where they are exposed.
func NewNop() *Metrics { return New(prometheus.NewRegistry()) }
