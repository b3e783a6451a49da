// Package blobs releases remote objects whose metadata record was purged.
//
// The metadata purge is already committed when Release runs, so a failure
// here leaves at worst an orphaned object. There is no retry queue.
package blobs

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/objectstore"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/records"
)

type ReleaseRecorder interface {
	RecordRelease(collection string, success bool)
}

type Coordinator struct {
	store   objectstore.Store
	logger  logging.Logger
	metrics ReleaseRecorder
}

// NewCoordinator builds a Coordinator. metrics may be nil.
func NewCoordinator(store objectstore.Store, logger logging.Logger, metrics ReleaseRecorder) *Coordinator {
	return &Coordinator{store: store, logger: logger.With("module", "blobs"), metrics: metrics}
}

// Release deletes the object behind ref. Empty refs are ignored. Errors are
// logged as warnings and never returned. The deletion is not cut short by
// cancellation of ctx.
func (c *Coordinator) Release(ctx context.Context, collection, ref string) {
	if ref == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)

	err := c.store.Delete(ctx, ref)
	if c.metrics != nil {
		c.metrics.RecordRelease(collection, err == nil)
	}
	if err != nil {
		c.logger.Warn(ctx, "remote blob orphaned", "collection", collection, "ref", ref, "error", err)
		return
	}
	c.logger.Debug(ctx, "remote blob released", "collection", collection, "ref", ref)
}

// ReleasePurged releases the refs of a batch of purged records.
func (c *Coordinator) ReleasePurged(ctx context.Context, collection string, purged []records.Purged) {
	for _, p := range purged {
		c.Release(ctx, collection, p.RemoteRef)
	}
}
