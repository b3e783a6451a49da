// Package objectstore defines the Store interface for the S3-compatible
// storage that holds vault file blobs.
//
// The metadata database is the source of truth. A blob whose record was
// purged is released through Store.Delete on a best-effort basis:
//
//	if err := store.Delete(ctx, ref); err != nil {
//	    // the object is orphaned; log and move on
//	}
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by Store implementations.
var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrAccessDenied is returned when the credentials lack permission for the operation.
	ErrAccessDenied = errors.New("access denied")
)

// ObjectError wraps an error with the object key for context.
type ObjectError struct {
	Op  string // Operation that failed (e.g., "Delete", "PresignPut")
	Key string // Object key
	Err error  // Underlying error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("objectstore: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}

// Store is the interface for object storage operations.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Store interface {
	// Delete removes an object.
	//
	// Delete is idempotent: deleting a non-existent object succeeds silently.
	Delete(ctx context.Context, key string) error

	// PresignPut returns a URL the client can PUT the object content to
	// until expires elapses.
	PresignPut(ctx context.Context, key string, expires time.Duration) (string, error)
}

// KeyPrefix is the common prefix of every vault blob key.
const KeyPrefix = "vault/"

// NewKey returns a fresh random object key.
func NewKey() string {
	return KeyPrefix + uuid.NewString()
}
