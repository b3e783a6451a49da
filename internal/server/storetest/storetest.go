// Package storetest opens migrated in-memory SQLite databases for tests of
// packages that sit on top of the repositories.
package storetest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/server/repositories/records"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophvault/internal/server/shared/db"
	"github.com/google/uuid"
)

// Open returns a fresh, migrated database private to the test. Foreign keys
// are enforced so a purge that forgets the children fails loudly.
func Open(tb testing.TB) (*sql.DB, repomanager.RepositoryManager) {
	tb.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = conn.Close() })

	m, err := repomanager.NewRepositoryManager(db.DriverSQLite)
	if err != nil {
		tb.Fatalf("repository manager: %v", err)
	}
	if err := m.RunMigrations(context.Background(), conn); err != nil {
		tb.Fatalf("migrations: %v", err)
	}
	return conn, m
}

// Records is a shortcut for a collection repository over conn.
func Records(tb testing.TB, m repomanager.RepositoryManager, conn records.Conn, collection string) records.Repository {
	tb.Helper()
	repo, err := m.Records(conn, collection)
	if err != nil {
		tb.Fatalf("records %s: %v", collection, err)
	}
	return repo
}
