package metrics

import "github.com/prometheus/client_golang/prometheus"

// Object store operation label values.
const (
	OpObjDelete     = "delete"
	OpObjPresignPut = "presign_put"
)

// ObjectStoreMetrics holds metrics related to object store operations.
type ObjectStoreMetrics struct {
	// LatencyHistogram tracks operation latencies by operation and status.
	LatencyHistogram *prometheus.HistogramVec
	// RequestsTotal tracks operations by operation and status.
	RequestsTotal *prometheus.CounterVec
}

// DefaultObjectStoreLatencyBuckets covers S3 round trips from a few
// milliseconds to tens of seconds.
var DefaultObjectStoreLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

func NewObjectStoreMetricsWithRegistry(reg prometheus.Registerer) *ObjectStoreMetrics {
	m := &ObjectStoreMetrics{
		LatencyHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "objectstore",
				Name:      "operation_latency_seconds",
				Help:      "Object store operation latency in seconds, broken down by operation and status.",
				Buckets:   DefaultObjectStoreLatencyBuckets,
			},
			[]string{"op", "result"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "objectstore",
				Name:      "ops_total",
				Help:      "Total number of object store operations, broken down by operation and status.",
			},
			[]string{"op", "result"},
		),
	}
	reg.MustRegister(m.LatencyHistogram, m.RequestsTotal)
	return m
}

func (m *ObjectStoreMetrics) RecordOperation(op string, durationSeconds float64, success bool) {
	s := status(success)
	m.LatencyHistogram.WithLabelValues(op, s).Observe(durationSeconds)
	m.RequestsTotal.WithLabelValues(op, s).Inc()
}

func (m *ObjectStoreMetrics) RecordDelete(durationSeconds float64, success bool) {
	m.RecordOperation(OpObjDelete, durationSeconds, success)
}

func (m *ObjectStoreMetrics) RecordPresignPut(durationSeconds float64, success bool) {
	m.RecordOperation(OpObjPresignPut, durationSeconds, success)
}
