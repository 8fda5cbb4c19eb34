package iooptimize

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// vacuumTables are tables changed by every crawl.
var vacuumTables = []string{"units", "datasets", "crawl_runs"}

// vacuumAnalyze reclaims space of deleted and updated units and
// refreshes planner statistics, including the GiST index on geometry.
// VACUUM cannot run inside a transaction block.
func vacuumAnalyze(ctx context.Context, pool *pgxpool.Pool) error {
	for _, t := range vacuumTables {
		timeStart := time.Now()
		q := "VACUUM ANALYZE " + pgx.Identifier{t}.Sanitize()
		if _, err := pool.Exec(ctx, q); err != nil {
			return VacuumError(t, err)
		}
		slog.Info("VACUUM ANALYZE completed",
			"table", t, "duration", time.Since(timeStart).String())
	}
	return nil
}
