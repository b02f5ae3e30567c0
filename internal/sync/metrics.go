package sync

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the reconciliation layer.
type Metrics struct {
	// QueueDepth is the number of events waiting for remote delivery.
	QueueDepth prometheus.Gauge

	// Delivered counts events acknowledged by the remote store.
	Delivered prometheus.Counter

	// MirrorFailures counts failed delivery attempts.
	MirrorFailures prometheus.Counter

	// AggregationDuration observes full-fold aggregation timings in seconds.
	AggregationDuration prometheus.Histogram
}

// NewMetrics creates and registers the sync metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "courtside",
			Subsystem: "sync",
			Name:      "outbox_depth",
			Help:      "Events queued for remote delivery.",
		}),
		Delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "courtside",
			Subsystem: "sync",
			Name:      "delivered_total",
			Help:      "Events acknowledged by the remote store.",
		}),
		MirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "courtside",
			Subsystem: "sync",
			Name:      "mirror_failures_total",
			Help:      "Failed remote delivery attempts.",
		}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "courtside",
			Subsystem: "engine",
			Name:      "aggregation_duration_seconds",
			Help:      "Full-fold aggregation duration.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.QueueDepth, m.Delivered, m.MirrorFailures, m.AggregationDuration)
	return m
}
