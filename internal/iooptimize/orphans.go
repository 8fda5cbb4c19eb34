package iooptimize

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// removeOrphanUnits deletes units whose dataset row is gone.
func removeOrphanUnits(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	tag, err := pool.Exec(ctx, `
		DELETE FROM units u
		WHERE NOT EXISTS (
			SELECT 1 FROM datasets d WHERE d.dataset_id = u.dataset_id
		)`)
	if err != nil {
		return 0, OrphanRemovalError(err)
	}

	res := tag.RowsAffected()
	slog.Info("Removed orphan units", "count", res)
	return res, nil
}

// recountUnits fixes units_count of datasets that drifted from the
// actual number of units.
func recountUnits(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	tag, err := pool.Exec(ctx, `
		UPDATE datasets d
		SET units_count = c.n
		FROM (
			SELECT ds.dataset_id, count(u.unit_key) AS n
			FROM datasets ds
			LEFT JOIN units u ON u.dataset_id = ds.dataset_id
			GROUP BY ds.dataset_id
		) c
		WHERE c.dataset_id = d.dataset_id AND d.units_count <> c.n`)
	if err != nil {
		return 0, RecountError(err)
	}

	res := tag.RowsAffected()
	slog.Info("Recounted dataset units", "datasets", res)
	return res, nil
}
