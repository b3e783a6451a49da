package metrics

import "github.com/prometheus/client_golang/prometheus"

// SweeperMetrics holds metrics of background sweeps.
type SweeperMetrics struct {
	// RunsTotal counts sweeps by collection and result.
	RunsTotal *prometheus.CounterVec
	// PurgedTotal counts records removed by collection and step
	// (trash_purge, age_purge, cap_eviction).
	PurgedTotal *prometheus.CounterVec
	// Duration observes sweep wall time by collection.
	Duration *prometheus.HistogramVec
}

func NewSweeperMetricsWithRegistry(reg prometheus.Registerer) *SweeperMetrics {
	m := &SweeperMetrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sweeper",
				Name:      "runs_total",
				Help:      "Total number of sweeps, broken down by collection and result.",
			},
			[]string{"collection", "result"},
		),
		PurgedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sweeper",
				Name:      "purged_total",
				Help:      "Total number of records purged by sweeps, broken down by collection and step.",
			},
			[]string{"collection", "step"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "sweeper",
				Name:      "duration_seconds",
				Help:      "Sweep duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection"},
		),
	}
	reg.MustRegister(m.RunsTotal, m.PurgedTotal, m.Duration)
	return m
}

// RecordRun records one finished sweep.
func (m *SweeperMetrics) RecordRun(collection string, durationSeconds float64, success bool) {
	m.RunsTotal.WithLabelValues(collection, status(success)).Inc()
	m.Duration.WithLabelValues(collection).Observe(durationSeconds)
}

// RecordPurged adds n purged records for a sweep step.
func (m *SweeperMetrics) RecordPurged(collection, step string, n int) {
	if n <= 0 {
		return
	}
	m.PurgedTotal.WithLabelValues(collection, step).Add(float64(n))
}
