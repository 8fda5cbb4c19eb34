package iostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/db"
	"github.com/gnames/gnabcd/pkg/record"
	"github.com/gnames/gnabcd/pkg/schema"
	"github.com/gnames/gnabcd/pkg/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore keeps datasets in PostgreSQL with PostGIS.
type pgStore struct {
	op        db.Operator
	pool      *pgxpool.Pool
	batchSize int
}

// NewPostgres creates a store on a connected operator. The operator is
// closed together with the store.
func NewPostgres(op db.Operator, batchSize int) (store.Store, error) {
	pool := op.Pool()
	if pool == nil {
		return nil, OpenError("postgres", "", errors.New("not connected"))
	}
	if batchSize <= 0 {
		batchSize = 5_000
	}
	return &pgStore{op: op, pool: pool, batchSize: batchSize}, nil
}

var unitColumns = []string{
	"dataset_id", "unit_key", "id", "attributes",
	"longitude", "latitude", "canonical_name", "updated_at",
}

func (s *pgStore) Datasets(ctx context.Context) ([]store.DatasetState, error) {
	q := `SELECT dataset_id, version_marker, missing_cycles
	FROM datasets ORDER BY dataset_id`
	rows, err := s.pool.Query(ctx, q)
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

func (s *pgStore) Snapshot(
	ctx context.Context,
	datasetID string,
) (record.Snapshot, error) {
	res := record.EmptySnapshot(datasetID)

	q := `SELECT version_marker FROM datasets WHERE dataset_id = $1`
	err := s.pool.QueryRow(ctx, q, datasetID).Scan(&res.VersionMarker)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return res, SnapshotReadError(datasetID, err)
	}

	q = `SELECT unit_key, attributes, longitude, latitude, canonical_name
	FROM units WHERE dataset_id = $1`
	rows, err := s.pool.Query(ctx, q, datasetID)
	if err != nil {
		return res, SnapshotReadError(datasetID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, canonical string
		var attrs []byte
		var lon, lat *float64
		if err = rows.Scan(&key, &attrs, &lon, &lat, &canonical); err != nil {
			return res, SnapshotReadError(datasetID, err)
		}
		r, err := unitRecord(datasetID, key, attrs, lon, lat, canonical)
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

// Apply saves the commit in one transaction. Concurrent writers of the
// same dataset are serialized by an advisory lock.
func (s *pgStore) Apply(
	ctx context.Context,
	c store.Commit,
) (store.CommitResult, error) {
	var res store.CommitResult
	id := c.DatasetID

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, WriteError(id, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", id)
	if err != nil {
		return res, WriteError(id, err)
	}

	var found string
	err = tx.QueryRow(ctx,
		"SELECT version_marker FROM datasets WHERE dataset_id = $1", id,
	).Scan(&found)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return res, WriteError(id, err)
	}
	if found != c.ExpectedMarker {
		return res, CommitConflictError(id, c.ExpectedMarker, found)
	}

	now := time.Now().UTC()

	if len(c.ToDelete) > 0 {
		ct, err := tx.Exec(ctx,
			"DELETE FROM units WHERE dataset_id = $1 AND unit_key = ANY($2)",
			id, c.ToDelete)
		if err != nil {
			return res, WriteError(id, err)
		}
		res.Deleted = int(ct.RowsAffected())
	}

	if res.Updated, err = s.update(ctx, tx, c.ToUpdate, now); err != nil {
		return res, WriteError(id, err)
	}

	if res.Inserted, err = s.insert(ctx, tx, c.ToInsert, now); err != nil {
		return res, WriteError(id, err)
	}

	q := `UPDATE units
	SET geom = ST_SetSRID(ST_MakePoint(longitude, latitude), 4326)
	WHERE dataset_id = $1 AND geom IS NULL
		AND longitude IS NOT NULL AND latitude IS NOT NULL`
	if _, err = tx.Exec(ctx, q, id); err != nil {
		return res, WriteError(id, err)
	}

	if err = upsertDataset(ctx, tx, c, now); err != nil {
		return res, WriteError(id, err)
	}

	if err = tx.Commit(ctx); err != nil {
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

// update sends changed units in batches. Geometry is reset and
// recalculated after inserts.
func (s *pgStore) update(
	ctx context.Context,
	tx pgx.Tx,
	recs []record.Record,
	now time.Time,
) (int, error) {
	q := `UPDATE units
	SET attributes = $3, longitude = $4, latitude = $5, geom = NULL,
		canonical_name = $6, updated_at = $7
	WHERE dataset_id = $1 AND unit_key = $2`

	var res int
	for i := 0; i < len(recs); i += s.batchSize {
		end := min(i+s.batchSize, len(recs))

		b := &pgx.Batch{}
		for _, r := range recs[i:end] {
			u, err := unitRow(r, now)
			if err != nil {
				return res, err
			}
			b.Queue(q, u.DatasetID, u.UnitKey, u.Attributes,
				u.Longitude, u.Latitude, u.CanonicalName, u.UpdatedAt)
		}

		br := tx.SendBatch(ctx, b)
		for range b.Len() {
			ct, err := br.Exec()
			if err != nil {
				br.Close()
				return res, err
			}
			res += int(ct.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *pgStore) insert(
	ctx context.Context,
	tx pgx.Tx,
	recs []record.Record,
	now time.Time,
) (int, error) {
	var res int
	for i := 0; i < len(recs); i += s.batchSize {
		end := min(i+s.batchSize, len(recs))

		rows := make([][]any, 0, end-i)
		for _, r := range recs[i:end] {
			u, err := unitRow(r, now)
			if err != nil {
				return res, err
			}
			rows = append(rows, []any{
				u.DatasetID, u.UnitKey, u.ID, u.Attributes,
				u.Longitude, u.Latitude, u.CanonicalName, u.UpdatedAt,
			})
		}

		n, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"units"},
			unitColumns,
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return res, err
		}
		res += int(n)
	}
	return res, nil
}

// upsertDataset saves the version and metadata of a dataset. Empty
// metadata keeps the stored values.
func upsertDataset(
	ctx context.Context,
	tx pgx.Tx,
	c store.Commit,
	now time.Time,
) error {
	attrs, err := attributesJSON(c.Dataset.Attributes)
	if err != nil {
		return err
	}
	q := `INSERT INTO datasets AS d
		(dataset_id, version_marker, title, landing_page, provider,
		source_url, attributes, missing_cycles, units_count, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, 0,
		(SELECT count(*) FROM units WHERE dataset_id = $1), $8)
	ON CONFLICT (dataset_id) DO UPDATE SET
		version_marker = excluded.version_marker,
		title = COALESCE(NULLIF(excluded.title, ''), d.title),
		landing_page = COALESCE(NULLIF(excluded.landing_page, ''), d.landing_page),
		provider = COALESCE(NULLIF(excluded.provider, ''), d.provider),
		source_url = COALESCE(NULLIF(excluded.source_url, ''), d.source_url),
		attributes = CASE WHEN excluded.attributes = '{}'::jsonb
			THEN d.attributes ELSE excluded.attributes END,
		missing_cycles = 0,
		units_count = excluded.units_count,
		updated_at = excluded.updated_at`
	_, err = tx.Exec(ctx, q,
		c.DatasetID, c.VersionMarker, c.Dataset.Title, c.Dataset.LandingPage,
		c.Dataset.Provider, c.Dataset.SourceURL, attrs, now)
	return err
}

func (s *pgStore) MarkMissing(ctx context.Context, datasetID string) (int, error) {
	q := `UPDATE datasets SET missing_cycles = missing_cycles + 1
	WHERE dataset_id = $1 RETURNING missing_cycles`
	var res int
	err := s.pool.QueryRow(ctx, q, datasetID).Scan(&res)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, WriteError(datasetID, err)
	}
	return res, nil
}

func (s *pgStore) ResetMissing(ctx context.Context, datasetID string) error {
	q := "UPDATE datasets SET missing_cycles = 0 WHERE dataset_id = $1"
	if _, err := s.pool.Exec(ctx, q, datasetID); err != nil {
		return WriteError(datasetID, err)
	}
	return nil
}

func (s *pgStore) RemoveDataset(ctx context.Context, datasetID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return WriteError(datasetID, err)
	}
	defer tx.Rollback(ctx)

	for _, q := range []string{
		"DELETE FROM units WHERE dataset_id = $1",
		"DELETE FROM datasets WHERE dataset_id = $1",
	} {
		if _, err = tx.Exec(ctx, q, datasetID); err != nil {
			return WriteError(datasetID, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return WriteError(datasetID, err)
	}
	return nil
}

// PublishCatalog replaces the content of the fields table.
func (s *pgStore) PublishCatalog(ctx context.Context, cat *catalog.Catalog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return WriteError("fields", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, "DELETE FROM fields"); err != nil {
		return WriteError("fields", err)
	}

	fields := fieldRows(cat)
	rows := make([][]any, len(fields))
	for i, f := range fields {
		rows[i] = []any{
			f.Path, f.Position, f.Scope, f.Type, f.Cardinality,
			f.Requirement, f.Unit, f.Role, f.Values,
		}
	}
	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{schema.Field{}.TableName()},
		[]string{
			"path", "position", "scope", "type", "cardinality",
			"requirement", "unit", "role", "values",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return WriteError("fields", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return WriteError("fields", err)
	}
	return nil
}

func (s *pgStore) SaveRun(ctx context.Context, rs store.RunSummary) error {
	r, err := runRow(rs)
	if err != nil {
		return WriteError("crawl_runs", err)
	}
	q := `INSERT INTO crawl_runs
		(id, started, finished, done, failed, skipped, removed,
		inserted, updated, deleted, failures)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = s.pool.Exec(ctx, q,
		r.ID, r.Started, r.Finished, r.Done, r.Failed, r.Skipped, r.Removed,
		r.Inserted, r.Updated, r.Deleted, r.Failures)
	if err != nil {
		return WriteError("crawl_runs", fmt.Errorf("save run %s: %w", r.ID, err))
	}
	return nil
}

func (s *pgStore) Close() error {
	return s.op.Close()
}
