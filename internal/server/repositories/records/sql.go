package records

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

// Dialect selects the placeholder style of the driver.
type Dialect int

const (
	// Postgres uses $1, $2, ... placeholders (pgx).
	Postgres Dialect = iota
	// SQLite uses ? placeholders (modernc.org/sqlite).
	SQLite
)

// DialectFor maps a database driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// bind rewrites ? placeholders for the dialect. Queries never contain a
// literal question mark.
func (d Dialect) bind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate is the row-lock clause of a SELECT. SQLite serializes writers
// and has no row locks.
func (d Dialect) forUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// Predicate is a condition a record must satisfy at the moment it is
// deleted. It is checked again inside the DELETE, so a record that changed
// state since it was selected is left alone.
type Predicate struct {
	Name string
	cond string
	args []any
}

func (p Predicate) String() string { return p.Name }

// GraceExpired matches trashed records deleted before cutoff.
func GraceExpired(cutoff time.Time) Predicate {
	return Predicate{
		Name: "grace_expired",
		cond: "deleted_at IS NOT NULL AND deleted_at < ?",
		args: []any{toMillis(cutoff)},
	}
}

// AgedOut matches records created before cutoff. With a trash stage only
// active records qualify.
func AgedOut(cutoff time.Time, hasTrashStage bool) Predicate {
	if hasTrashStage {
		return Predicate{
			Name: "aged_out",
			cond: "deleted_at IS NULL AND created_at < ?",
			args: []any{toMillis(cutoff)},
		}
	}
	return Predicate{
		Name: "aged_out",
		cond: "created_at < ?",
		args: []any{toMillis(cutoff)},
	}
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrorStorage, op, err)
}
