package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet_RegistersEverything(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSet(reg)

	s.Sweeper.RecordRun("todos", 0.01, true)
	s.Sweeper.RecordPurged("todos", "age_purge", 2)
	s.Blobs.RecordRelease("vault_files", false)
	s.ObjectStore.RecordDelete(0.02, true)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 6)

	assert.Panics(t, func() { NewSet(reg) }, "double registration")
}

func TestSweeperMetrics(t *testing.T) {
	m := NewSweeperMetricsWithRegistry(prometheus.NewRegistry())

	m.RecordRun("conversations", 0.1, true)
	m.RecordRun("conversations", 0.1, false)
	m.RecordRun("conversations", 0.1, true)
	m.RecordPurged("conversations", "cap_eviction", 2)
	m.RecordPurged("conversations", "cap_eviction", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("conversations", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("conversations", StatusFailure)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PurgedTotal.WithLabelValues("conversations", "cap_eviction")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestBlobMetrics(t *testing.T) {
	m := NewBlobMetricsWithRegistry(prometheus.NewRegistry())
	m.RecordRelease("vault_files", true)
	m.RecordRelease("vault_files", false)
	m.RecordRelease("vault_files", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReleasedTotal.WithLabelValues("vault_files", StatusSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReleasedTotal.WithLabelValues("vault_files", StatusFailure)))
}

func TestObjectStoreMetrics(t *testing.T) {
	m := NewObjectStoreMetricsWithRegistry(prometheus.NewRegistry())
	m.RecordDelete(0.01, true)
	m.RecordDelete(0.01, false)
	m.RecordPresignPut(0.001, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(OpObjDelete, StatusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(OpObjPresignPut, StatusSuccess)))
	assert.Equal(t, 3, testutil.CollectAndCount(m.RequestsTotal))
}
