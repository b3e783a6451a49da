package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/metrics"
	"github.com/dmitrijs2005/gophvault/internal/server/retention"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronTrigger_EmptyScheduleIsIdle(t *testing.T) {
	f := newFixture(t, Never)
	tr := NewCronTrigger(f.sweeper, "", logging.Discard())

	require.NoError(t, tr.Start(context.Background()))
	assert.False(t, tr.IsRunning())
	assert.Nil(t, tr.NextRun())
	tr.Stop()
}

func TestCronTrigger_InvalidSchedule(t *testing.T) {
	f := newFixture(t, Never)
	tr := NewCronTrigger(f.sweeper, "every tuesday", logging.Discard())

	err := tr.Start(context.Background())
	assert.ErrorContains(t, err, "invalid cron schedule")
	assert.False(t, tr.IsRunning())
}

func TestCronTrigger_SweepsOnSchedule(t *testing.T) {
	f := newFixture(t, Never)
	tr := NewCronTrigger(f.sweeper, "@every 1s", logging.Discard())

	require.NoError(t, tr.Start(context.Background()))
	t.Cleanup(tr.Stop)
	assert.True(t, tr.IsRunning())
	require.NotNil(t, tr.NextRun())

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues(retention.Todos, metrics.StatusSuccess)) >= 1
	}, 5*time.Second, 50*time.Millisecond)

	tr.Stop()
	assert.False(t, tr.IsRunning())
}
