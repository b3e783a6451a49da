// Package services contains server-side business logic. RecordService is the
// entry point request handlers use for one retention-governed collection.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/objectstore"
	"github.com/dmitrijs2005/gophvault/internal/server/lifecycle"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/records"
	"github.com/dmitrijs2005/gophvault/internal/server/retention"
	"github.com/google/uuid"
)

// UploadURLValidity is how long a presigned vault upload URL stays usable.
const UploadURLValidity = 15 * time.Minute

const maxLabelLength = 1024

type Repositories interface {
	Records(collection string) (records.Repository, error)
}

// Releaser deletes the remote blobs of purged records.
type Releaser interface {
	Release(ctx context.Context, collection, ref string)
	ReleasePurged(ctx context.Context, collection string, purged []records.Purged)
}

// SweepTrigger starts a sampled background sweep of a collection.
type SweepTrigger interface {
	MaybeSweep(ctx context.Context, collection string) bool
}

type RecordService struct {
	collection string
	policy     retention.Policy
	repo       records.Repository
	store      objectstore.Store
	blobs      Releaser
	sweeper    SweepTrigger
	logger     logging.Logger
	now        func() time.Time
}

// Options carries the collaborators shared by every RecordService.
type Options struct {
	Repos    Repositories
	Policies retention.Set
	// Store presigns vault uploads. It may be nil when no collection keeps
	// remote blobs.
	Store   objectstore.Store
	Blobs   Releaser
	Sweeper SweepTrigger
	Logger  logging.Logger
	Now     func() time.Time
}

// NewRecordService builds the service of one collection.
func NewRecordService(collection string, opts Options) (*RecordService, error) {
	policy, err := opts.Policies.Lookup(collection)
	if err != nil {
		return nil, err
	}
	repo, err := opts.Repos.Records(collection)
	if err != nil {
		return nil, err
	}

	s := &RecordService{
		collection: collection,
		policy:     policy,
		repo:       repo,
		store:      opts.Store,
		blobs:      opts.Blobs,
		sweeper:    opts.Sweeper,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	s.logger = s.logger.With("module", "services", "collection", collection)
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func (s *RecordService) Collection() string { return s.collection }

func (s *RecordService) Policy() retention.Policy { return s.policy }

// served runs after every request touching the collection.
func (s *RecordService) served(ctx context.Context) {
	if s.sweeper != nil {
		s.sweeper.MaybeSweep(ctx, s.collection)
	}
}

// Create stores a new active record. For collections that keep remote blobs
// it also reserves an object key and returns a presigned upload URL for it.
func (s *RecordService) Create(ctx context.Context, label string) (*models.Record, *models.UploadTask, error) {
	defer s.served(ctx)

	label = strings.TrimSpace(label)
	if label == "" {
		return nil, nil, fmt.Errorf("%w: label is required", common.ErrorValidation)
	}
	if len(label) > maxLabelLength {
		return nil, nil, fmt.Errorf("%w: label longer than %d bytes", common.ErrorValidation, maxLabelLength)
	}

	now := s.now().UTC()
	rec := &models.Record{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var task *models.UploadTask
	if s.repo.Schema().RemoteRef != "" {
		if s.store == nil {
			return nil, nil, fmt.Errorf("%w: no object store configured", common.ErrorInternal)
		}
		rec.RemoteRef = objectstore.NewKey()
		url, err := s.store.PresignPut(ctx, rec.RemoteRef, UploadURLValidity)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: presign upload: %w", common.ErrorRemoteStore, err)
		}
		task = &models.UploadTask{RecordID: rec.ID, URL: url}
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, nil, err
	}
	return rec, task, nil
}

// AddChild appends a message to an active conversation.
func (s *RecordService) AddChild(ctx context.Context, parentID, body string) (*models.Child, error) {
	defer s.served(ctx)

	if parentID == "" {
		return nil, fmt.Errorf("%w: id is required", common.ErrorValidation)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: body is required", common.ErrorValidation)
	}

	child := &models.Child{
		ID:        uuid.NewString(),
		ParentID:  parentID,
		Body:      body,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.InsertChild(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// Get returns a record together with its children, if the collection has any.
func (s *RecordService) Get(ctx context.Context, id string) (*models.Record, []models.Child, error) {
	defer s.served(ctx)

	if id == "" {
		return nil, nil, fmt.Errorf("%w: id is required", common.ErrorValidation)
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !s.repo.Schema().HasChildren() {
		return rec, nil, nil
	}
	children, err := s.repo.ListChildren(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return rec, children, nil
}

func (s *RecordService) ListActive(ctx context.Context) ([]models.Record, error) {
	defer s.served(ctx)
	return s.repo.ListActive(ctx)
}

// ListTrashed lists the trash with the whole days left before each record
// is purged.
func (s *RecordService) ListTrashed(ctx context.Context) ([]models.TrashedRecord, error) {
	defer s.served(ctx)

	recs, err := s.repo.ListTrashed(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.TrashedRecord, 0, len(recs))
	for _, r := range recs {
		days, _ := lifecycle.DaysRemaining(r, s.policy, now)
		out = append(out, models.TrashedRecord{Record: r, DaysRemaining: days})
	}
	return out, nil
}

// SoftDelete moves a record to the trash. In collections without a trash
// stage the record is returned unchanged; those support only Purge.
func (s *RecordService) SoftDelete(ctx context.Context, id string) (*models.Record, error) {
	defer s.served(ctx)

	if id == "" {
		return nil, fmt.Errorf("%w: id is required", common.ErrorValidation)
	}
	if !s.policy.HasTrashStage {
		return s.repo.Get(ctx, id)
	}
	return s.repo.SoftDelete(ctx, id, s.now().UTC())
}

// Restore brings a record back from the trash. An active record is returned
// unchanged.
func (s *RecordService) Restore(ctx context.Context, id string) (*models.Record, error) {
	defer s.served(ctx)

	if id == "" {
		return nil, fmt.Errorf("%w: id is required", common.ErrorValidation)
	}
	return s.repo.Restore(ctx, id, s.now().UTC())
}

// releasesBlobs reports whether purges hand freed refs to the blob store.
// The sweeper applies the same rule.
func (s *RecordService) releasesBlobs() bool {
	return s.blobs != nil && s.policy.RemoteDeletionRequired
}

// Purge removes a record for good, whatever its state. The freed blob is
// released after the metadata delete has committed.
func (s *RecordService) Purge(ctx context.Context, id string) error {
	defer s.served(ctx)

	if id == "" {
		return fmt.Errorf("%w: id is required", common.ErrorValidation)
	}
	ref, err := s.repo.Purge(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "record purged", "id", id)
	if s.releasesBlobs() {
		s.blobs.Release(ctx, s.collection, ref)
	}
	return nil
}

// PurgeAll wipes the collection and reports how many records were removed.
func (s *RecordService) PurgeAll(ctx context.Context) (int, error) {
	defer s.served(ctx)

	purged, err := s.repo.PurgeAll(ctx)
	if s.releasesBlobs() && len(purged) > 0 {
		s.blobs.ReleasePurged(ctx, s.collection, purged)
	}
	if err != nil {
		return 0, err
	}
	s.logger.Warn(ctx, "collection wiped", "purged", len(purged))
	return len(purged), nil
}

// Registry holds one RecordService per collection.
type Registry struct {
	services map[string]*RecordService
}

// NewRegistry builds a service for every collection of opts.Policies.
func NewRegistry(opts Options) (*Registry, error) {
	names := opts.Policies.Names()
	r := &Registry{services: make(map[string]*RecordService, len(names))}
	for _, name := range names {
		s, err := NewRecordService(name, opts)
		if err != nil {
			return nil, err
		}
		r.services[name] = s
	}
	return r, nil
}

// For returns the service of collection or common.ErrorUnknownCollection.
func (r *Registry) For(collection string) (*RecordService, error) {
	s, ok := r.services[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrorUnknownCollection, collection)
	}
	return s, nil
}
