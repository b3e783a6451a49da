package metrics

import "github.com/prometheus/client_golang/prometheus"

// BlobMetrics counts remote blob releases. Failures are orphaned objects.
type BlobMetrics struct {
	ReleasedTotal *prometheus.CounterVec
}

func NewBlobMetricsWithRegistry(reg prometheus.Registerer) *BlobMetrics {
	m := &BlobMetrics{
		ReleasedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "blobs",
				Name:      "released_total",
				Help:      "Remote blobs released after a metadata purge, broken down by collection and result.",
			},
			[]string{"collection", "result"},
		),
	}
	reg.MustRegister(m.ReleasedTotal)
	return m
}

func (m *BlobMetrics) RecordRelease(collection string, success bool) {
	m.ReleasedTotal.WithLabelValues(collection, status(success)).Inc()
}
