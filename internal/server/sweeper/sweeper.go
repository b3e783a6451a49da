// Package sweeper runs the cleanup pass of a collection: purge expired
// trash, purge aged-out records, then evict records over the cap.
//
// The order is fixed. Every step is a conditional delete bounded by the batch
// size, so sweeps may run concurrently with each other and with ordinary
// traffic. A sweep that loses a race leaves the record for the next one.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/server/lifecycle"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/records"
	"github.com/dmitrijs2005/gophvault/internal/server/retention"
)

// Step names, also used as metric labels.
const (
	StepTrashPurge  = "trash_purge"
	StepAgePurge    = "age_purge"
	StepCapEviction = "cap_eviction"
)

// DefaultBatchSize bounds the records removed per step when none is configured.
const DefaultBatchSize = 200

type Repositories interface {
	Records(collection string) (records.Repository, error)
}

// Releaser hands freed remote refs to the blob store.
type Releaser interface {
	ReleasePurged(ctx context.Context, collection string, purged []records.Purged)
}

type MetricsRecorder interface {
	RecordRun(collection string, durationSeconds float64, success bool)
	RecordPurged(collection, step string, n int)
}

// StepError tells which step of which collection failed.
type StepError struct {
	Collection string
	Step       string
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sweep %s: %s: %v", e.Collection, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Report counts the records one sweep removed.
type Report struct {
	Collection  string
	TrashPurged int
	AgePurged   int
	Evicted     int
}

func (r Report) Total() int { return r.TrashPurged + r.AgePurged + r.Evicted }

type Config struct {
	Repos    Repositories
	Policies retention.Set
	// Blobs may be nil when no collection requires remote deletion.
	Blobs   Releaser
	Sampler Sampler
	Metrics MetricsRecorder
	Logger  logging.Logger
	// BatchSize defaults to DefaultBatchSize.
	BatchSize int
	// Now defaults to time.Now.
	Now func() time.Time
}

type Sweeper struct {
	repos    Repositories
	policies retention.Set
	blobs    Releaser
	sampler  Sampler
	metrics  MetricsRecorder
	logger   logging.Logger
	runner   *Runner
	batch    int
	now      func() time.Time
}

func New(cfg Config) *Sweeper {
	s := &Sweeper{
		repos:    cfg.Repos,
		policies: cfg.Policies,
		blobs:    cfg.Blobs,
		sampler:  cfg.Sampler,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		batch:    cfg.BatchSize,
		now:      cfg.Now,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.logger = s.logger.With("module", "sweeper")
	if s.sampler == nil {
		s.sampler = Never
	}
	if s.batch <= 0 {
		s.batch = DefaultBatchSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.runner = NewRunner(s.logger)
	return s
}

// Sweep runs one pass over collection and waits for it.
func (s *Sweeper) Sweep(ctx context.Context, collection string) (Report, error) {
	rep := Report{Collection: collection}

	policy, err := s.policies.Lookup(collection)
	if err != nil {
		return rep, err
	}
	repo, err := s.repos.Records(collection)
	if err != nil {
		return rep, err
	}

	start := time.Now()
	err = s.sweep(ctx, repo, policy, &rep)
	if s.metrics != nil {
		s.metrics.RecordRun(collection, time.Since(start).Seconds(), err == nil)
	}
	if err != nil {
		return rep, err
	}

	if rep.Total() > 0 {
		s.logger.Info(ctx, "sweep finished", "collection", collection,
			"trash_purged", rep.TrashPurged, "age_purged", rep.AgePurged, "evicted", rep.Evicted)
	} else {
		s.logger.Debug(ctx, "sweep found nothing to do", "collection", collection)
	}
	return rep, nil
}

func (s *Sweeper) sweep(ctx context.Context, repo records.Repository, policy retention.Policy, rep *Report) error {
	cut := lifecycle.CutoffsFor(policy, s.now())

	if cut.Grace.Set {
		n, err := s.step(ctx, rep.Collection, StepTrashPurge, policy, func() ([]records.Purged, error) {
			return repo.PurgeWhere(ctx, records.GraceExpired(cut.Grace.At), s.batch)
		})
		rep.TrashPurged = n
		if err != nil {
			return err
		}
	}

	if cut.Age.Set {
		n, err := s.step(ctx, rep.Collection, StepAgePurge, policy, func() ([]records.Purged, error) {
			return repo.PurgeWhere(ctx, records.AgedOut(cut.Age.At, policy.HasTrashStage), s.batch)
		})
		rep.AgePurged = n
		if err != nil {
			return err
		}
	}

	if policy.Capped() {
		n, err := s.step(ctx, rep.Collection, StepCapEviction, policy, func() ([]records.Purged, error) {
			return repo.EvictOverCap(ctx, policy.Cap, s.batch)
		})
		rep.Evicted = n
		if err != nil {
			return err
		}
	}
	return nil
}

// step runs one purge and forwards the refs it freed, even when the purge
// stopped halfway with an error.
func (s *Sweeper) step(ctx context.Context, collection, name string, policy retention.Policy, purge func() ([]records.Purged, error)) (int, error) {
	purged, err := purge()

	if policy.RemoteDeletionRequired && s.blobs != nil && len(purged) > 0 {
		s.blobs.ReleasePurged(ctx, collection, purged)
	}
	if s.metrics != nil {
		s.metrics.RecordPurged(collection, name, len(purged))
	}
	if err != nil {
		return len(purged), &StepError{Collection: collection, Step: name, Err: err}
	}
	return len(purged), nil
}

// MaybeSweep consults the sampler and, when it fires, launches a detached
// sweep of collection. It never blocks on the sweep and reports whether one
// was launched. Sweep errors are logged by the runner.
func (s *Sweeper) MaybeSweep(ctx context.Context, collection string) bool {
	if !s.sampler.Sample() {
		return false
	}
	s.runner.Go(ctx, func(ctx context.Context) error {
		_, err := s.Sweep(ctx, collection)
		return err
	}, "collection", collection)
	return true
}

// SweepAll sweeps every collection of the policy set in turn and joins the
// failures. One failing collection does not stop the others.
func (s *Sweeper) SweepAll(ctx context.Context) ([]Report, error) {
	names := s.policies.Names()
	reports := make([]Report, 0, len(names))
	var errs []error
	for _, name := range names {
		rep, err := s.Sweep(ctx, name)
		reports = append(reports, rep)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return reports, errors.Join(errs...)
}

// Wait blocks until every sweep launched by MaybeSweep has finished.
func (s *Sweeper) Wait() {
	s.runner.Wait()
}
