package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/server/models"
)

// errSkipped rolls back a conditional purge whose record no longer matches.
var errSkipped = errors.New("record no longer matches")

type SQLRepository struct {
	db      Conn
	schema  Schema
	dialect Dialect
}

func NewSQLRepository(db Conn, schema Schema, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, schema: schema, dialect: dialect}
}

func (r *SQLRepository) Schema() Schema { return r.schema }

func (r *SQLRepository) refExpr() string {
	if r.schema.RemoteRef == "" {
		return "''"
	}
	return r.schema.RemoteRef
}

func (r *SQLRepository) columns() string {
	return "id, label, created_at, updated_at, deleted_at, " + r.refExpr()
}

func (r *SQLRepository) q(format string, args ...any) string {
	return r.dialect.bind(fmt.Sprintf(format, args...))
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) scan(s scanner) (models.Record, error) {
	var (
		rec              models.Record
		created, updated int64
		deleted          sql.NullInt64
	)
	if err := s.Scan(&rec.ID, &rec.Label, &created, &updated, &deleted, &rec.RemoteRef); err != nil {
		return models.Record{}, err
	}
	rec.Collection = r.schema.Collection
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	if deleted.Valid {
		at := fromMillis(deleted.Int64)
		rec.DeletedAt = &at
	}
	return rec, nil
}

func (r *SQLRepository) Insert(ctx context.Context, rec *models.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: empty id", common.ErrorValidation)
	}
	if rec.RemoteRef != "" && r.schema.RemoteRef == "" {
		return fmt.Errorf("%w: %s records carry no remote ref", common.ErrorValidation, r.schema.Collection)
	}

	var deleted any
	if rec.DeletedAt != nil {
		deleted = toMillis(*rec.DeletedAt)
	}

	args := []any{rec.ID, rec.Label, toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt), deleted}
	query := r.q(`INSERT INTO %s (id, label, created_at, updated_at, deleted_at) VALUES (?, ?, ?, ?, ?)`, r.schema.Table)
	if r.schema.RemoteRef != "" {
		query = r.q(`INSERT INTO %s (id, label, created_at, updated_at, deleted_at, %s) VALUES (?, ?, ?, ?, ?, ?)`,
			r.schema.Table, r.schema.RemoteRef)
		args = append(args, rec.RemoteRef)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storageErr("insert", err)
	}
	rec.Collection = r.schema.Collection
	return nil
}

func (r *SQLRepository) InsertChild(ctx context.Context, child *models.Child) error {
	if !r.schema.HasChildren() {
		return fmt.Errorf("%w: %s records have no children", common.ErrorValidation, r.schema.Collection)
	}
	if child.ID == "" || child.ParentID == "" {
		return fmt.Errorf("%w: empty id", common.ErrorValidation)
	}

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			r.q(`UPDATE %s SET updated_at = ? WHERE id = ? AND deleted_at IS NULL`, r.schema.Table),
			toMillis(child.CreatedAt), child.ParentID)
		if err != nil {
			return err
		}
		n, err := dbx.Affected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.ErrorNotFound
		}

		_, err = tx.ExecContext(ctx,
			r.q(`INSERT INTO %s (id, %s, body, created_at) VALUES (?, ?, ?, ?)`, r.schema.ChildTable, r.schema.ChildFK),
			child.ID, child.ParentID, child.Body, toMillis(child.CreatedAt))
		return err
	})
	if errors.Is(err, common.ErrorNotFound) {
		return err
	}
	if err != nil {
		return storageErr("insert child", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*models.Record, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT %s FROM %s WHERE id = ?`, r.columns(), r.schema.Table), id)
	rec, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, storageErr("get", err)
	}
	return &rec, nil
}

func (r *SQLRepository) ListChildren(ctx context.Context, parentID string) ([]models.Child, error) {
	if !r.schema.HasChildren() {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		r.q(`SELECT id, %s, body, created_at FROM %s WHERE %s = ? ORDER BY created_at, id`,
			r.schema.ChildFK, r.schema.ChildTable, r.schema.ChildFK),
		parentID)
	if err != nil {
		return nil, storageErr("list children", err)
	}
	defer rows.Close()

	var result []models.Child
	for rows.Next() {
		var (
			c       models.Child
			created int64
		)
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Body, &created); err != nil {
			return nil, storageErr("list children", err)
		}
		c.CreatedAt = fromMillis(created)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list children", err)
	}
	return result, nil
}

func (r *SQLRepository) CountChildren(ctx context.Context, parentID string) (int, error) {
	if !r.schema.HasChildren() {
		return 0, nil
	}
	var n int
	err := r.db.QueryRowContext(ctx,
		r.q(`SELECT COUNT(*) FROM %s WHERE %s = ?`, r.schema.ChildTable, r.schema.ChildFK),
		parentID).Scan(&n)
	if err != nil {
		return 0, storageErr("count children", err)
	}
	return n, nil
}

func (r *SQLRepository) list(ctx context.Context, op, where, order string) ([]models.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		r.q(`SELECT %s FROM %s WHERE %s ORDER BY %s`, r.columns(), r.schema.Table, where, order))
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return result, nil
}

// ListActive returns active records, most recently updated first.
func (r *SQLRepository) ListActive(ctx context.Context) ([]models.Record, error) {
	return r.list(ctx, "list active", "deleted_at IS NULL", "updated_at DESC, id DESC")
}

// ListTrashed returns trashed records, most recently deleted first.
func (r *SQLRepository) ListTrashed(ctx context.Context) ([]models.Record, error) {
	return r.list(ctx, "list trashed", "deleted_at IS NOT NULL", "deleted_at DESC, id DESC")
}

func (r *SQLRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		r.q(`SELECT COUNT(*) FROM %s WHERE deleted_at IS NULL`, r.schema.Table)).Scan(&n)
	if err != nil {
		return 0, storageErr("count active", err)
	}
	return n, nil
}

// transition runs a conditional UPDATE ... RETURNING. When no row matched,
// the record is either absent (ErrorNotFound) or already in the target state
// and returned as is.
func (r *SQLRepository) transition(ctx context.Context, op, query, id string, args ...any) (*models.Record, error) {
	rec, err := r.scan(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return r.Get(ctx, id)
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &rec, nil
}

func (r *SQLRepository) SoftDelete(ctx context.Context, id string, now time.Time) (*models.Record, error) {
	query := r.q(`UPDATE %s SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL RETURNING %s`,
		r.schema.Table, r.columns())
	return r.transition(ctx, "soft delete", query, id, toMillis(now), id)
}

func (r *SQLRepository) Restore(ctx context.Context, id string, now time.Time) (*models.Record, error) {
	query := r.q(`UPDATE %s SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL RETURNING %s`,
		r.schema.Table, r.columns())
	return r.transition(ctx, "restore", query, id, toMillis(now), id)
}

// purgeOne deletes the children and then the record in one transaction.
// With a predicate the record is deleted only if it still matches; otherwise
// nothing is deleted and deleted is false.
//
// A record with children is locked before its children go, so a concurrent
// InsertChild either lands before the purge (and its child is deleted with
// the rest) or waits and then finds no parent.
func (r *SQLRepository) purgeOne(ctx context.Context, id string, p *Predicate) (ref string, deleted bool, err error) {
	where := "id = ?"
	args := []any{id}
	if p != nil {
		where += " AND (" + p.cond + ")"
		args = append(args, p.args...)
	}
	lock := r.dialect.bind(fmt.Sprintf(`SELECT id FROM %s WHERE %s`, r.schema.Table, where) + r.dialect.forUpdate())
	query := r.dialect.bind(fmt.Sprintf(`DELETE FROM %s WHERE %s RETURNING %s`, r.schema.Table, where, r.refExpr()))

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if r.schema.HasChildren() {
			var locked string
			err := tx.QueryRowContext(ctx, lock, args...).Scan(&locked)
			if errors.Is(err, sql.ErrNoRows) {
				return errSkipped
			}
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx,
				r.q(`DELETE FROM %s WHERE %s = ?`, r.schema.ChildTable, r.schema.ChildFK), id)
			if err != nil {
				return err
			}
		}
		err := tx.QueryRowContext(ctx, query, args...).Scan(&ref)
		if errors.Is(err, sql.ErrNoRows) {
			return errSkipped
		}
		return err
	})
	switch {
	case errors.Is(err, errSkipped):
		return "", false, nil
	case err != nil:
		return "", false, err
	default:
		return ref, true, nil
	}
}

func (r *SQLRepository) Purge(ctx context.Context, id string) (string, error) {
	ref, deleted, err := r.purgeOne(ctx, id, nil)
	if err != nil {
		return "", storageErr("purge", err)
	}
	if !deleted {
		return "", common.ErrorNotFound
	}
	return ref, nil
}

func (r *SQLRepository) selectIDs(ctx context.Context, where, order string, limit int, args ...any) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE %s ORDER BY %s`, r.schema.Table, where, order)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLRepository) purgeEach(ctx context.Context, op string, ids []string, p Predicate) ([]Purged, error) {
	var purged []Purged
	for _, id := range ids {
		ref, deleted, err := r.purgeOne(ctx, id, &p)
		if err != nil {
			return purged, storageErr(op, err)
		}
		if deleted {
			purged = append(purged, Purged{ID: id, RemoteRef: ref})
		}
	}
	return purged, nil
}

func (r *SQLRepository) PurgeWhere(ctx context.Context, p Predicate, limit int) ([]Purged, error) {
	ids, err := r.selectIDs(ctx, p.cond, "created_at, id", limit, p.args...)
	if err != nil {
		return nil, storageErr("purge "+p.Name, err)
	}
	return r.purgeEach(ctx, "purge "+p.Name, ids, p)
}

// overCap holds for an active record that has at least max active records
// newer than itself by (updated_at, id).
func (r *SQLRepository) overCap(max int) Predicate {
	t := r.schema.Table
	return Predicate{
		Name: "over_cap",
		cond: fmt.Sprintf(`deleted_at IS NULL AND (SELECT COUNT(*) FROM %[1]s AS n WHERE n.deleted_at IS NULL `+
			`AND (n.updated_at > %[1]s.updated_at OR (n.updated_at = %[1]s.updated_at AND n.id > %[1]s.id))) >= ?`, t),
		args: []any{max},
	}
}

func (r *SQLRepository) EvictOverCap(ctx context.Context, max, limit int) ([]Purged, error) {
	if max <= 0 {
		return nil, nil
	}
	count, err := r.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	excess := count - max
	if excess <= 0 {
		return nil, nil
	}
	if limit > 0 && excess > limit {
		excess = limit
	}

	ids, err := r.selectIDs(ctx, "deleted_at IS NULL", "updated_at, id", excess)
	if err != nil {
		return nil, storageErr("evict over cap", err)
	}
	return r.purgeEach(ctx, "evict over cap", ids, r.overCap(max))
}

func (r *SQLRepository) PurgeAll(ctx context.Context) ([]Purged, error) {
	var purged []Purged
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		purged = nil
		if r.schema.HasChildren() {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, r.schema.ChildTable)); err != nil {
				return err
			}
		}
		rows, err := tx.QueryContext(ctx,
			fmt.Sprintf(`DELETE FROM %s RETURNING id, %s`, r.schema.Table, r.refExpr()))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p Purged
			if err := rows.Scan(&p.ID, &p.RemoteRef); err != nil {
				return err
			}
			purged = append(purged, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, storageErr("purge all", err)
	}
	return purged, nil
}
