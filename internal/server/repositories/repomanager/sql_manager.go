package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/server/migrations"
	"github.com/dmitrijs2005/gophvault/internal/server/repositories/records"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL-backed repositories for PostgreSQL (pgx) or
// SQLite (modernc) and exposes a schema migration hook.
type SQLRepositoryManager struct {
	dialect      records.Dialect
	gooseDialect string
}

// Records returns the repository of a collection bound to the provided
// connection.
func (m *SQLRepositoryManager) Records(db records.Conn, collection string) (records.Repository, error) {
	schema, err := records.SchemaFor(collection)
	if err != nil {
		return nil, err
	}
	return records.NewSQLRepository(db, schema, m.dialect), nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewRepositoryManager constructs a RepositoryManager for a database driver
// name ("pgx" or "sqlite").
func NewRepositoryManager(driver string) (RepositoryManager, error) {
	dialect, err := records.DialectFor(driver)
	if err != nil {
		return nil, err
	}
	gooseDialect := "pgx"
	if dialect == records.SQLite {
		gooseDialect = "sqlite3"
	}
	return &SQLRepositoryManager{dialect: dialect, gooseDialect: gooseDialect}, nil
}
