// Package metrics provides Prometheus metrics for the retention machinery:
// sweeper runs and purges, blob releases and object store operations.
//
// Every constructor takes a Registerer so tests can use a private registry
// and the server can expose its own on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "gophvault"

// Result label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

func status(success bool) string {
	if success {
		return StatusSuccess
	}
	return StatusFailure
}

// Set bundles every metric group of the server.
type Set struct {
	Sweeper     *SweeperMetrics
	Blobs       *BlobMetrics
	ObjectStore *ObjectStoreMetrics
}

// NewSet creates and registers all metric groups with reg.
func NewSet(reg prometheus.Registerer) *Set {
	return &Set{
		Sweeper:     NewSweeperMetricsWithRegistry(reg),
		Blobs:       NewBlobMetricsWithRegistry(reg),
		ObjectStore: NewObjectStoreMetricsWithRegistry(reg),
	}
}
