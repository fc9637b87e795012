package service

import (
	"time"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics exposes import activity as Prometheus metrics.
// A nil *ImportMetrics is valid and records nothing.
type ImportMetrics struct {
	records        *prometheus.CounterVec
	topicsUpserted prometheus.Counter
	cacheLookups   *prometheus.CounterVec
	batchDuration  prometheus.Histogram
}

// NewImportMetrics creates the import metrics and registers them with reg.
func NewImportMetrics(reg prometheus.Registerer) (*ImportMetrics, error) {
	m := &ImportMetrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topicgraph",
			Subsystem: "import",
			Name:      "records_total",
			Help:      "Imported records by outcome status",
		}, []string{"status"}),
		topicsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "topicgraph",
			Subsystem: "import",
			Name:      "topics_upserted_total",
			Help:      "Topics written to the store by import batches",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topicgraph",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Topic cache lookups by result (hit or miss)",
		}, []string{"result"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "topicgraph",
			Subsystem: "import",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of import batches",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}

	for _, c := range []prometheus.Collector{m.records, m.topicsUpserted, m.cacheLookups, m.batchDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ImportMetrics) recordOutcome(status domain.ImportStatus) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(string(status)).Inc()
}

func (m *ImportMetrics) upserted(n int) {
	if m == nil {
		return
	}
	m.topicsUpserted.Add(float64(n))
}

func (m *ImportMetrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *ImportMetrics) observeBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(d.Seconds())
}
