// Package repomanager vends repository implementations bound to a
// connection and runs the embedded schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophvault/internal/server/repositories/records"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Records(db records.Conn, collection string) (records.Repository, error)
}

// Bound is a RepositoryManager with its connection fixed, so callers only
// name the collection.
type Bound struct {
	manager RepositoryManager
	db      records.Conn
}

func Bind(m RepositoryManager, db records.Conn) *Bound {
	return &Bound{manager: m, db: db}
}

func (b *Bound) Records(collection string) (records.Repository, error) {
	return b.manager.Records(b.db, collection)
}
