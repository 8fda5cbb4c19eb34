package iostore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/record"
	"github.com/gnames/gnabcd/pkg/schema"
	"github.com/gnames/gnabcd/pkg/store"
	_ "modernc.org/sqlite"
)

// sqliteStore keeps datasets in an embedded SQLite file. Geometry is
// saved as WKT.
type sqliteStore struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (and creates if needed) the SQLite store.
func NewSQLite(path string) (store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, OpenError("sqlite", path, err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, OpenError("sqlite", path, err)
	}
	// one writer at a time, reads wait for it
	db.SetMaxOpenConns(1)

	for _, q := range schema.SQLiteDDL() {
		if _, err = db.Exec(q); err != nil {
			db.Close()
			return nil, OpenError("sqlite", path, err)
		}
	}

	return &sqliteStore{db: db, path: path}, nil
}

func (s *sqliteStore) Datasets(ctx context.Context) ([]store.DatasetState, error) {
	q := `SELECT dataset_id, version_marker, missing_cycles
	FROM datasets ORDER BY dataset_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, SnapshotReadError("*", err)
	}
	defer rows.Close()

	var res []store.DatasetState
	for rows.Next() {
		var ds store.DatasetState
		err = rows.Scan(&ds.DatasetID, &ds.VersionMarker, &ds.MissingCycles)
		if err != nil {
			return nil, SnapshotReadError("*", err)
		}
		res = append(res, ds)
	}
	if err = rows.Err(); err != nil {
		return nil, SnapshotReadError("*", err)
	}
	return res, nil
}

func (s *sqliteStore) Snapshot(
	ctx context.Context,
	datasetID string,
) (record.Snapshot, error) {
	res := record.EmptySnapshot(datasetID)

	q := `SELECT version_marker FROM datasets WHERE dataset_id = ?`
	err := s.db.QueryRowContext(ctx, q, datasetID).Scan(&res.VersionMarker)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return res, SnapshotReadError(datasetID, err)
	}

	q = `SELECT unit_key, attributes, longitude, latitude, canonical_name
	FROM units WHERE dataset_id = ?`
	rows, err := s.db.QueryContext(ctx, q, datasetID)
	if err != nil {
		return res, SnapshotReadError(datasetID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, attrs, canonical string
		var lon, lat sql.NullFloat64
		if err = rows.Scan(&key, &attrs, &lon, &lat, &canonical); err != nil {
			return res, SnapshotReadError(datasetID, err)
		}
		r, err := unitRecord(
			datasetID, key, []byte(attrs), nullable(lon), nullable(lat), canonical,
		)
		if err != nil {
			return res, SnapshotReadError(datasetID, err)
		}
		res.Records[key] = r
	}
	if err = rows.Err(); err != nil {
		return res, SnapshotReadError(datasetID, err)
	}
	return res, nil
}

func nullable(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}

// Apply saves the commit in one transaction.
func (s *sqliteStore) Apply(
	ctx context.Context,
	c store.Commit,
) (store.CommitResult, error) {
	var res store.CommitResult
	id := c.DatasetID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, WriteError(id, err)
	}
	defer tx.Rollback()

	var found string
	err = tx.QueryRowContext(ctx,
		"SELECT version_marker FROM datasets WHERE dataset_id = ?", id,
	).Scan(&found)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return res, WriteError(id, err)
	}
	if found != c.ExpectedMarker {
		return res, CommitConflictError(id, c.ExpectedMarker, found)
	}

	now := time.Now().UTC()

	if res.Deleted, err = execEach(ctx, tx,
		"DELETE FROM units WHERE dataset_id = ? AND unit_key = ?",
		len(c.ToDelete),
		func(i int) ([]any, error) {
			return []any{id, c.ToDelete[i]}, nil
		},
	); err != nil {
		return res, WriteError(id, err)
	}

	q := `UPDATE units
	SET attributes = ?, longitude = ?, latitude = ?, geom = ?,
		canonical_name = ?, updated_at = ?
	WHERE dataset_id = ? AND unit_key = ?`
	if res.Updated, err = execEach(ctx, tx, q, len(c.ToUpdate),
		func(i int) ([]any, error) {
			u, err := unitRow(c.ToUpdate[i], now)
			return []any{
				u.Attributes, u.Longitude, u.Latitude, u.Geom,
				u.CanonicalName, timestamp(now), u.DatasetID, u.UnitKey,
			}, err
		},
	); err != nil {
		return res, WriteError(id, err)
	}

	q = `INSERT INTO units
		(dataset_id, unit_key, id, attributes, longitude, latitude, geom,
		canonical_name, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if res.Inserted, err = execEach(ctx, tx, q, len(c.ToInsert),
		func(i int) ([]any, error) {
			u, err := unitRow(c.ToInsert[i], now)
			return []any{
				u.DatasetID, u.UnitKey, u.ID, u.Attributes, u.Longitude,
				u.Latitude, u.Geom, u.CanonicalName, timestamp(now),
			}, err
		},
	); err != nil {
		return res, WriteError(id, err)
	}

	attrs, err := attributesJSON(c.Dataset.Attributes)
	if err != nil {
		return res, WriteError(id, err)
	}
	q = `INSERT INTO datasets
		(dataset_id, version_marker, title, landing_page, provider,
		source_url, attributes, missing_cycles, units_count, updated_at)
	VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, 0,
		(SELECT count(*) FROM units WHERE dataset_id = ?1), ?8)
	ON CONFLICT (dataset_id) DO UPDATE SET
		version_marker = excluded.version_marker,
		title = COALESCE(NULLIF(excluded.title, ''), datasets.title),
		landing_page = COALESCE(NULLIF(excluded.landing_page, ''), datasets.landing_page),
		provider = COALESCE(NULLIF(excluded.provider, ''), datasets.provider),
		source_url = COALESCE(NULLIF(excluded.source_url, ''), datasets.source_url),
		attributes = CASE WHEN excluded.attributes = '{}'
			THEN datasets.attributes ELSE excluded.attributes END,
		missing_cycles = 0,
		units_count = excluded.units_count,
		updated_at = excluded.updated_at`
	_, err = tx.ExecContext(ctx, q,
		id, c.VersionMarker, c.Dataset.Title, c.Dataset.LandingPage,
		c.Dataset.Provider, c.Dataset.SourceURL, attrs, timestamp(now))
	if err != nil {
		return res, WriteError(id, err)
	}

	if err = tx.Commit(); err != nil {
		return store.CommitResult{}, WriteError(id, err)
	}

	slog.Debug("Dataset committed",
		"dataset", id,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"deleted", res.Deleted,
	)
	return res, nil
}

// execEach runs a prepared statement n times with arguments from args
// and returns the number of affected rows.
func execEach(
	ctx context.Context,
	tx *sql.Tx,
	query string,
	n int,
	args func(int) ([]any, error),
) (int, error) {
	if n == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var res int
	for i := range n {
		vals, err := args(i)
		if err != nil {
			return res, err
		}
		r, err := stmt.ExecContext(ctx, vals...)
		if err != nil {
			return res, err
		}
		affected, err := r.RowsAffected()
		if err != nil {
			return res, err
		}
		res += int(affected)
	}
	return res, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *sqliteStore) MarkMissing(ctx context.Context, datasetID string) (int, error) {
	q := `UPDATE datasets SET missing_cycles = missing_cycles + 1
	WHERE dataset_id = ? RETURNING missing_cycles`
	var res int
	err := s.db.QueryRowContext(ctx, q, datasetID).Scan(&res)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, WriteError(datasetID, err)
	}
	return res, nil
}

func (s *sqliteStore) ResetMissing(ctx context.Context, datasetID string) error {
	q := "UPDATE datasets SET missing_cycles = 0 WHERE dataset_id = ?"
	if _, err := s.db.ExecContext(ctx, q, datasetID); err != nil {
		return WriteError(datasetID, err)
	}
	return nil
}

func (s *sqliteStore) RemoveDataset(ctx context.Context, datasetID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteError(datasetID, err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM units WHERE dataset_id = ?",
		"DELETE FROM datasets WHERE dataset_id = ?",
	} {
		if _, err = tx.ExecContext(ctx, q, datasetID); err != nil {
			return WriteError(datasetID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return WriteError(datasetID, err)
	}
	return nil
}

func (s *sqliteStore) PublishCatalog(ctx context.Context, cat *catalog.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteError("fields", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, "DELETE FROM fields"); err != nil {
		return WriteError("fields", err)
	}

	cols := []string{
		`"path"`, `"position"`, `"scope"`, `"type"`, `"cardinality"`,
		`"requirement"`, `"unit"`, `"role"`, `"values"`,
	}
	q := "INSERT INTO fields (" + strings.Join(cols, ", ") +
		") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	fields := fieldRows(cat)
	_, err = execEach(ctx, tx, q, len(fields), func(i int) ([]any, error) {
		f := fields[i]
		return []any{
			f.Path, f.Position, f.Scope, f.Type, f.Cardinality,
			f.Requirement, f.Unit, f.Role, f.Values,
		}, nil
	})
	if err != nil {
		return WriteError("fields", err)
	}

	if err = tx.Commit(); err != nil {
		return WriteError("fields", err)
	}
	return nil
}

func (s *sqliteStore) SaveRun(ctx context.Context, rs store.RunSummary) error {
	r, err := runRow(rs)
	if err != nil {
		return WriteError("crawl_runs", err)
	}
	q := `INSERT INTO crawl_runs
		(id, started, finished, done, failed, skipped, removed,
		inserted, updated, deleted, failures)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		r.ID, timestamp(r.Started), timestamp(r.Finished), r.Done, r.Failed,
		r.Skipped, r.Removed, r.Inserted, r.Updated, r.Deleted, r.Failures)
	if err != nil {
		return WriteError("crawl_runs", err)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
