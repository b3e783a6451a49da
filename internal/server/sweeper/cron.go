package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/robfig/cron/v3"
)

// CronTrigger sweeps every collection on a cron schedule, in addition to
// the request-sampled sweeps.
type CronTrigger struct {
	sweeper  *Sweeper
	schedule string
	cron     *cron.Cron
	logger   logging.Logger

	mu      sync.Mutex
	running bool
}

func NewCronTrigger(s *Sweeper, schedule string, logger logging.Logger) *CronTrigger {
	return &CronTrigger{
		sweeper:  s,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("module", "sweeper.cron"),
	}
}

// Start schedules the sweeps. An empty schedule leaves the trigger idle.
//
// Common expressions:
//   - "0 3 * * *"   daily at 3 AM
//   - "@every 1h"   hourly
func (t *CronTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.schedule == "" {
		t.logger.Info(ctx, "sweep schedule not configured, skipping cron trigger")
		return nil
	}
	if _, err := cron.ParseStandard(t.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", t.schedule, err)
	}

	ctx = context.WithoutCancel(ctx)
	if _, err := t.cron.AddFunc(t.schedule, func() { t.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule sweeps: %w", err)
	}

	t.cron.Start()
	t.running = true
	t.logger.Info(ctx, "sweep scheduler started", "schedule", t.schedule)
	return nil
}

func (t *CronTrigger) run(ctx context.Context) {
	reports, err := t.sweeper.SweepAll(ctx)
	if err != nil {
		t.logger.Error(ctx, "scheduled sweep failed", "error", err)
	}
	total := 0
	for _, r := range reports {
		total += r.Total()
	}
	t.logger.Debug(ctx, "scheduled sweep completed", "purged", total)
}

// Stop stops the scheduler and waits for a running sweep to complete.
func (t *CronTrigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		<-t.cron.Stop().Done()
		t.running = false
	}
}

func (t *CronTrigger) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// NextRun returns the next scheduled sweep, nil when idle.
func (t *CronTrigger) NextRun() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := t.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
