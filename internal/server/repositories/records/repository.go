// Package records is the only code that touches the tables behind the
// retention-governed collections. Every mutation is a conditional
// statement, so concurrent callers converge instead of conflicting.
package records

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
)

// Conn is satisfied by *sql.DB.
type Conn interface {
	dbx.DBTX
	dbx.TxBeginner
}

// Purged identifies a record removed by a bulk operation. RemoteRef is the
// blob key freed by the removal, empty when none.
type Purged struct {
	ID        string
	RemoteRef string
}

type Repository interface {
	Schema() Schema

	Insert(ctx context.Context, rec *models.Record) error
	// InsertChild adds a child to an active parent and refreshes the
	// parent's UpdatedAt.
	InsertChild(ctx context.Context, child *models.Child) error
	Get(ctx context.Context, id string) (*models.Record, error)
	ListChildren(ctx context.Context, parentID string) ([]models.Child, error)
	CountChildren(ctx context.Context, parentID string) (int, error)

	ListActive(ctx context.Context) ([]models.Record, error)
	ListTrashed(ctx context.Context) ([]models.Record, error)
	CountActive(ctx context.Context) (int, error)

	// SoftDelete and Restore return the record unchanged when it is
	// already in the target state.
	SoftDelete(ctx context.Context, id string, now time.Time) (*models.Record, error)
	Restore(ctx context.Context, id string, now time.Time) (*models.Record, error)

	// Purge deletes the record and its children and returns the freed
	// remote ref. A missing id gives common.ErrorNotFound.
	Purge(ctx context.Context, id string) (string, error)
	// PurgeWhere deletes up to limit records matching p. Records purged
	// before an error are still reported.
	PurgeWhere(ctx context.Context, p Predicate, limit int) ([]Purged, error)
	// EvictOverCap deletes up to limit of the least recently updated active
	// records while more than max remain active.
	EvictOverCap(ctx context.Context, max, limit int) ([]Purged, error)
	PurgeAll(ctx context.Context) ([]Purged, error)
}
